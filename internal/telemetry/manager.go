package telemetry

import (
	"time"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds the Prometheus collectors for the chart pipeline and the
// HTTP API.
type Manager struct {
	// counters
	CounterCharts   *prometheus.CounterVec
	CounterDerived  *prometheus.CounterVec
	CounterRequests *prometheus.CounterVec
	CounterStale    prometheus.Counter

	// histograms
	HistChartDuration   *prometheus.HistogramVec
	HistDerivedDuration prometheus.Histogram
	HistRequestDuration *prometheus.HistogramVec
}

var _ metrics.Observer = (*Manager)(nil)

func NewTestManager() *Manager {
	return NewManager("healthtrends", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("healthtrends", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterCharts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "charts_total",
			Help:      "Chart pipeline runs by metric, period and outcome",
		}, []string{"metric", "period", "outcome"}),
		CounterDerived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "derived_total",
			Help:      "Derived metric computations by outcome",
		}, []string{"outcome"}),
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of incoming HTTP requests",
		}, []string{"method", "status"}),
		CounterStale: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stale_charts_discarded_total",
			Help:      "Chart results discarded because a newer request superseded them",
		}),
		HistChartDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chart_duration_seconds",
			Help:      "Duration of chart pipeline runs in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"metric"}),
		HistDerivedDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "derived_duration_seconds",
			Help:      "Duration of derived metric computations in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Histogram of response time for requests in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status_code"}),
	}
}

// ObserveChart records one chart pipeline run.
func (m *Manager) ObserveChart(metric metrics.Metric, period metrics.Period, outcome string, elapsed time.Duration) {
	m.CounterCharts.WithLabelValues(string(metric), string(period), outcome).Inc()
	m.HistChartDuration.WithLabelValues(string(metric)).Observe(elapsed.Seconds())
}

// ObserveDerived records one derived metric computation.
func (m *Manager) ObserveDerived(outcome string, elapsed time.Duration) {
	m.CounterDerived.WithLabelValues(outcome).Inc()
	m.HistDerivedDuration.Observe(elapsed.Seconds())
}
