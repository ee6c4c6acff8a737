package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	lbsPerKG   = 2.20462
	kgPerStone = 6.35029

	// sleepTolerance is how close to the target counts as hitting it, in hours.
	sleepTolerance = 0.1
)

// NormalizeTarget converts a stored target (kg for weight, mL for hydration)
// into the unit the series is drawn in. Missing, non-finite and non-positive
// targets are rejected.
func NormalizeTarget(d Descriptor, raw float64, displayUnit string) (float64, bool) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
		return 0, false
	}

	v := raw
	switch d.Metric {
	case Hydration:
		v = raw / GlassML
	case Weight:
		switch strings.ToLower(displayUnit) {
		case "lbs", "lb":
			v = raw * lbsPerKG
		case "stone", "st":
			v = raw / kgPerStone
		}
	}
	return Round(v, d.DecimalPlaces), true
}

// currentValue is the value compared against the target: the last point of
// the first row, or for stacked sleep the asleep stages of the last column.
func currentValue(s *Series) (float64, bool) {
	if s.ChartType != ChartStacked {
		return s.Last()
	}
	if len(s.Points) < 3 || len(s.Labels) == 0 {
		return 0, false
	}
	last := len(s.Labels) - 1
	return Round(s.Points[0][last]+s.Points[1][last]+s.Points[2][last], 1), true
}

// ApplyTarget attaches a normalized target and comparison text to s. Metrics
// without a target key, and invalid targets, leave s unannotated. The
// comparison is omitted when either side is zero.
func ApplyTarget(s *Series, d Descriptor, raw *float64) {
	if !d.HasTarget() || raw == nil {
		return
	}
	target, ok := NormalizeTarget(d, *raw, s.DisplayUnit)
	if !ok {
		return
	}
	s.TargetValue = &target

	current, ok := currentValue(s)
	if !ok || current == 0 {
		return
	}
	s.TargetComparison = CompareTarget(d, current, target, s.DisplayUnit)
}

// CompareTarget phrases current against target for the given metric.
func CompareTarget(d Descriptor, current, target float64, displayUnit string) string {
	cur := formatValue(d, current)
	tgt := formatValue(d, target)
	diff := current - target

	switch d.Metric {
	case Weight:
		unit := displayUnit
		if unit == "" {
			unit = d.Unit
		}
		if diff > 0 {
			return fmt.Sprintf("Current: %s%s. Target: %s%s. You're %.1f%s above your target.",
				cur, unit, tgt, unit, diff, unit)
		}
		return fmt.Sprintf("Current: %s%s. Target: %s%s. You're within range of your target.",
			cur, unit, tgt, unit)

	case Sleep:
		switch {
		case math.Abs(diff) < sleepTolerance:
			return fmt.Sprintf("You're hitting your sleep target of %s hours.", tgt)
		case diff >= 0:
			return fmt.Sprintf("You're getting %s hours of sleep, above your target of %s hours.", cur, tgt)
		default:
			return fmt.Sprintf("Current: %s hours. Target: %s hours. Try to get %.1f more hours of sleep.",
				cur, tgt, -diff)
		}
	}

	if diff < 0 {
		pct := Round(math.Abs(diff/target*100), 1)
		return fmt.Sprintf("Current: %s. Target: %s. You're %s%% below target.",
			cur, tgt, strconv.FormatFloat(pct, 'f', -1, 64))
	}
	return fmt.Sprintf("Current: %s. Target: %s. You're meeting your target.", cur, tgt)
}

func formatValue(d Descriptor, v float64) string {
	switch {
	case d.Metric == Hydration:
		return fmt.Sprintf("%.1f glasses", v)
	case d.DecimalPlaces == 0:
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
