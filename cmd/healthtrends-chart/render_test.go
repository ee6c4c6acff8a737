package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"ab", 4, "ab  "},
		{"abcd", 2, "abcd"},
		{"", 0, ""},
	}
	for _, tt := range tests {
		if got := padRight(tt.in, tt.n); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

// TestRenderSeriesBars verifies single-row charts print one bar line per
// label followed by the target comparison.
func TestRenderSeriesBars(t *testing.T) {
	target := 8.0
	s := &metrics.Series{
		Metric:           metrics.Hydration,
		Period:           metrics.Week,
		Unit:             "glasses",
		Labels:           []string{"18", "19"},
		Points:           [][]float64{{4, 8}},
		TargetValue:      &target,
		TargetComparison: "Current: 8. Target: 8. You're meeting your target.",
	}
	var buf bytes.Buffer
	renderSeries(&buf, s)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	if lines[0] != "Water (glasses), week" {
		t.Errorf("title = %q", lines[0])
	}
	if want := "18 " + strings.Repeat("█", 15) + " 4"; lines[1] != want {
		t.Errorf("line 1 = %q, want %q", lines[1], want)
	}
	if want := "19 " + strings.Repeat("█", 30) + " 8"; lines[2] != want {
		t.Errorf("line 2 = %q, want %q", lines[2], want)
	}
	if lines[len(lines)-1] != s.TargetComparison {
		t.Errorf("last line = %q", lines[len(lines)-1])
	}
}

// TestRenderSeriesBMI verifies zones are printed and unplotted points are
// shown as a dash.
func TestRenderSeriesBMI(t *testing.T) {
	s := &metrics.Series{
		Metric: metrics.BMI,
		Period: metrics.Year,
		Unit:   "kg/m²",
		Labels: []string{"Jan", "Feb"},
		Points: [][]float64{{24.2, 0}},
	}
	metrics.AnnotateBMI(s)

	var buf bytes.Buffer
	renderSeries(&buf, s)
	got := buf.String()
	if !strings.Contains(got, "24.2 normal") {
		t.Errorf("missing normal zone:\n%s", got)
	}
	if !strings.Contains(got, "Feb -") {
		t.Errorf("unplotted point not dashed:\n%s", got)
	}
}

// TestRenderSeriesStacked verifies multi-row charts print a legend header.
func TestRenderSeriesStacked(t *testing.T) {
	s := &metrics.Series{
		Metric: metrics.Sleep,
		Period: metrics.Week,
		Unit:   "hours",
		Labels: []string{"18"},
		Points: [][]float64{{1.5}, {4}, {1.8}, {0.5}},
		Legend: metrics.SleepLegend,
	}
	var buf bytes.Buffer
	renderSeries(&buf, s)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	for _, name := range metrics.SleepLegend {
		if !strings.Contains(lines[1], name) {
			t.Errorf("header %q missing %q", lines[1], name)
		}
	}
	if fields := strings.Fields(lines[2]); len(fields) != 5 || fields[1] != "1.5" {
		t.Errorf("row = %q", lines[2])
	}
}

// TestRenderSeriesEmpty verifies an empty series prints a notice.
func TestRenderSeriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderSeries(&buf, &metrics.Series{Metric: metrics.Steps, Period: metrics.Month, Unit: "steps"})
	if !strings.Contains(buf.String(), "No data for this period.") {
		t.Errorf("output = %q", buf.String())
	}
}

// TestRenderDerivedMessages verifies unavailable values print their messages.
func TestRenderDerivedMessages(t *testing.T) {
	var buf bytes.Buffer
	renderDerived(&buf, metrics.ComputeDerived(nil, 0, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)))
	if !strings.Contains(buf.String(), "BMI not available") {
		t.Errorf("output = %q", buf.String())
	}
}
