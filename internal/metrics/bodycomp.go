package metrics

import (
	"time"

	"github.com/claude/healthtrends/internal/models"
)

// BodyCompositionLegend is the fixed row order of body composition series.
var BodyCompositionLegend = []string{"Body Fat", "Muscle Mass", "Water"}

var bodyCompositionRows = []Metric{BodyFat, MuscleMass, WaterPercentage}

// DecomposeBodyComposition charts fat, muscle and water percentages side by
// side for any of the three body composition metrics. Scans are deduplicated
// per day first. Zero readings count as missing.
func DecomposeBodyComposition(m Metric, records []models.RawHealthRecord, period Period, now time.Time) (*Series, error) {
	d, err := Lookup(m)
	if err != nil {
		return nil, err
	}

	descs := make([]Descriptor, len(bodyCompositionRows))
	for i, rm := range bodyCompositionRows {
		descs[i] = descriptors[rm]
	}

	deduped := Deduplicate(records)
	samples := make([]sample, 0, len(deduped))
	for _, rec := range deduped {
		t, ok := rec.Time()
		if !ok {
			continue
		}
		vals := make([]*float64, len(descs))
		for i, rd := range descs {
			vals[i] = Extract(rd, rec, 0)
		}
		samples = append(samples, sample{date: t, values: vals})
	}

	buckets, err := bucketSamples(samples, len(descs), period, d.DecimalPlaces, now)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(buckets))
	rows := make([][]float64, len(descs))
	for i := range rows {
		rows[i] = make([]float64, len(buckets))
	}
	for j, b := range buckets {
		labels[j] = Label(b.date, period)
		for i := range rows {
			rows[i][j] = b.values[i]
		}
	}

	chart := ChartBodyCompositionLine
	if period == Week {
		chart = ChartBodyCompositionBar
	}
	return &Series{
		Metric:    m,
		Period:    period,
		ChartType: chart,
		Unit:      d.Unit,
		Labels:    labels,
		Points:    rows,
		Legend:    append([]string(nil), BodyCompositionLegend...),
	}, nil
}
