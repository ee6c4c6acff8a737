package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/fatih/color"
)

const barWidth = 30

var (
	faint = color.New(color.Faint)
	bold  = color.New(color.Bold)

	zoneColors = map[metrics.Zone]*color.Color{
		metrics.ZoneUnder:  color.New(color.FgYellow),
		metrics.ZoneNormal: color.New(color.FgGreen),
		metrics.ZoneOver:   color.New(color.FgYellow),
		metrics.ZoneObese:  color.New(color.FgRed),
	}

	// Row colors for stacked and multi-row charts, in legend order.
	rowColors = []*color.Color{
		color.New(color.FgBlue),
		color.New(color.FgCyan),
		color.New(color.FgMagenta),
		color.New(color.FgYellow),
	}
)

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func labelWidth(labels []string) int {
	w := 0
	for _, l := range labels {
		if len(l) > w {
			w = len(l)
		}
	}
	return w
}

// renderSeries writes s as a text chart: one line per label, with a bar
// for single-row series and one column per legend entry otherwise.
func renderSeries(w io.Writer, s *metrics.Series) {
	unit := s.Unit
	if s.DisplayUnit != "" {
		unit = s.DisplayUnit
	}
	title := string(s.Metric)
	if d, err := metrics.Lookup(s.Metric); err == nil {
		title = d.Label
	}
	bold.Fprintf(w, "%s (%s), %s\n", title, unit, s.Period)

	if s.Empty() {
		fmt.Fprintln(w, "No data for this period.")
		return
	}

	lw := labelWidth(s.Labels)
	if len(s.Points) > 1 {
		renderRows(w, s, lw)
	} else {
		renderBars(w, s, lw)
	}

	if s.TargetValue != nil {
		fmt.Fprintf(w, "%s %s\n", faint.Sprint("Target:"), formatNumber(*s.TargetValue))
	}
	if s.TargetComparison != "" {
		color.New(color.FgCyan).Fprintln(w, s.TargetComparison)
	}
}

func renderBars(w io.Writer, s *metrics.Series, lw int) {
	row := s.Points[0]
	lo, hi := 0.0, 0.0
	for _, v := range row {
		if v > hi {
			hi = v
		}
	}
	if s.Scale != nil {
		lo, hi = s.Scale.Min, s.Scale.Max
	}

	for i, label := range s.Labels {
		v := row[i]
		zone := metrics.ZoneNone
		if i < len(s.Zones) {
			zone = s.Zones[i]
		}
		if s.Zones != nil && zone == metrics.ZoneNone {
			fmt.Fprintf(w, "%s %s\n", padRight(label, lw), faint.Sprint("-"))
			continue
		}

		n := 0
		if hi > lo {
			n = int((v - lo) / (hi - lo) * barWidth)
		}
		n = max(0, min(n, barWidth))
		bar := strings.Repeat("█", n)
		if c, ok := zoneColors[zone]; ok {
			bar = c.Sprint(bar)
		}
		suffix := ""
		if zone != metrics.ZoneNone {
			suffix = faint.Sprintf(" %s", zone)
		}
		fmt.Fprintf(w, "%s %s %s%s\n", padRight(label, lw), bar, formatNumber(v), suffix)
	}
}

func renderRows(w io.Writer, s *metrics.Series, lw int) {
	header := padRight("", lw)
	for r, name := range s.Legend {
		header += " " + rowColors[r%len(rowColors)].Sprint(padRight(name, 12))
	}
	fmt.Fprintln(w, header)

	for i, label := range s.Labels {
		line := padRight(label, lw)
		for r := range s.Points {
			line += " " + padRight(formatNumber(s.Points[r][i]), 12)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// renderDerived writes BMI, BMR and the activity projection.
func renderDerived(w io.Writer, d metrics.Derived) {
	bold.Fprintln(w, "Derived metrics")
	if d.BMI > 0 {
		zone := d.BMIZone
		fmt.Fprintf(w, "%s %s %s\n", padRight("BMI", 8), formatNumber(d.BMI), zoneColors[zone].Sprint(zone))
	}
	if d.BMR > 0 {
		fmt.Fprintf(w, "%s %d kcal/day\n", padRight("BMR", 8), d.BMR)
		fmt.Fprintln(w)
		for _, a := range d.Activity {
			fmt.Fprintf(w, "%s %d\n", padRight(a.Name, 24), a.Calories)
		}
	}
	for _, m := range d.Messages {
		color.New(color.FgYellow).Fprintln(w, m)
	}
}
