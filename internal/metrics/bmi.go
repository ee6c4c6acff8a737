package metrics

// BMIScale is the fixed display range of BMI charts.
var BMIScale = Scale{Min: 15, Max: 35}

// ClassifyBMI returns the band of a BMI value. Lower edges are inclusive.
// Zero and negative values are not plotted.
func ClassifyBMI(v float64) Zone {
	switch {
	case v <= 0:
		return ZoneNone
	case v < 18.5:
		return ZoneUnder
	case v < 25:
		return ZoneNormal
	case v < 30:
		return ZoneOver
	default:
		return ZoneObese
	}
}

// AnnotateBMI attaches a zone per point and the fixed scale to s.
// Values are left untouched.
func AnnotateBMI(s *Series) {
	zones := make([]Zone, len(s.Labels))
	if len(s.Points) > 0 {
		for i, v := range s.Points[0] {
			zones[i] = ClassifyBMI(v)
		}
	}
	scale := BMIScale
	s.Zones = zones
	s.Scale = &scale
	s.ChartType = ChartBMIRanges
}
