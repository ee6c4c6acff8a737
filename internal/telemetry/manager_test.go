package telemetry

import (
	"testing"
	"time"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestObserveChart verifies chart runs are counted per metric, period and outcome.
func TestObserveChart(t *testing.T) {
	m := NewTestManager()
	m.ObserveChart(metrics.Steps, metrics.Week, metrics.OutcomeOK, 20*time.Millisecond)
	m.ObserveChart(metrics.Steps, metrics.Week, metrics.OutcomeOK, 30*time.Millisecond)
	m.ObserveChart(metrics.Sleep, metrics.Year, metrics.OutcomeError, time.Millisecond)

	if got := testutil.ToFloat64(m.CounterCharts.WithLabelValues("steps", "week", "ok")); got != 2 {
		t.Errorf("steps/week/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CounterCharts.WithLabelValues("sleep", "year", "error")); got != 1 {
		t.Errorf("sleep/year/error = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.HistChartDuration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

// TestObserveDerived verifies derived computations are counted by outcome.
func TestObserveDerived(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()
	m.ObserveDerived(metrics.OutcomeEmpty, time.Millisecond)

	if got := testutil.ToFloat64(m.CounterDerived.WithLabelValues("empty")); got != 1 {
		t.Errorf("derived empty = %v, want 1", got)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "healthtrends_test_derived_duration_seconds" {
			found = true
		}
	}
	if !found {
		t.Error("derived duration histogram not registered")
	}
}

// TestSetupPrometheus verifies the registry carries the runtime collectors
// and accepts a manager.
func TestSetupPrometheus(t *testing.T) {
	reg := SetupPrometheus()
	m := NewManager("healthtrends", "server", reg)
	m.CounterStale.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"go_goroutines", "healthtrends_server_stale_charts_discarded_total"} {
		if !names[want] {
			t.Errorf("metric %s not gathered", want)
		}
	}
}
