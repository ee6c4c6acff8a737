package metrics

// Zone is the BMI band of a plotted point.
type Zone string

const (
	ZoneNone   Zone = "none"
	ZoneUnder  Zone = "under"
	ZoneNormal Zone = "normal"
	ZoneOver   Zone = "over"
	ZoneObese  Zone = "obese"
)

// Scale is a fixed display range for the value axis.
type Scale struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Series is one rendering-ready chart. Every row of Points has the same
// length as Labels; single-series metrics have exactly one row.
type Series struct {
	Metric      Metric      `json:"metric"`
	Period      Period      `json:"period"`
	ChartType   ChartType   `json:"chart_type"`
	Unit        string      `json:"unit"`
	DisplayUnit string      `json:"display_unit,omitempty"`
	Labels      []string    `json:"labels"`
	Points      [][]float64 `json:"points"`
	Legend      []string    `json:"legend,omitempty"`
	Zones       []Zone      `json:"zones,omitempty"`
	Scale       *Scale      `json:"scale,omitempty"`

	TargetValue      *float64 `json:"target_value,omitempty"`
	TargetComparison string   `json:"target_comparison,omitempty"`
}

// Empty reports whether the series loaded without any history.
func (s *Series) Empty() bool {
	return len(s.Labels) == 0
}

// Last returns the final value of row 0, or false for an empty series.
func (s *Series) Last() (float64, bool) {
	if len(s.Points) == 0 || len(s.Points[0]) == 0 {
		return 0, false
	}
	row := s.Points[0]
	return row[len(row)-1], true
}

// newSeries builds a single-row series from buckets.
func newSeries(d Descriptor, period Period, buckets []BucketedPoint) *Series {
	row := make([]float64, len(buckets))
	for i, b := range buckets {
		row[i] = b.Value
	}
	return &Series{
		Metric:    d.Metric,
		Period:    period,
		ChartType: d.ChartType,
		Unit:      d.Unit,
		Labels:    Labels(buckets, period),
		Points:    [][]float64{row},
	}
}
