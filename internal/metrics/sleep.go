package metrics

// SleepLegend is the fixed row order of a stacked sleep series.
var SleepLegend = []string{"Deep", "Light", "REM", "Awake"}

// qualifiesForStages reports whether a bucket carries believable stage data.
func qualifiesForStages(st *SleepStages) bool {
	return st != nil && st.Deep > 0 && st.Light > 0 && st.Total() > 60
}

// DecomposeSleep turns bucketed sleep totals into a stacked four-row series
// of stage hours. Buckets without believable stage data are dropped. When no
// bucket qualifies the result is a single-row bar series of total hours.
func DecomposeSleep(d Descriptor, period Period, buckets []BucketedPoint) *Series {
	kept := make([]BucketedPoint, 0, len(buckets))
	for _, b := range buckets {
		if qualifiesForStages(b.Stages) {
			kept = append(kept, b)
		}
	}

	if len(kept) == 0 {
		s := newSeries(d, period, buckets)
		s.ChartType = ChartBar
		return s
	}

	rows := make([][]float64, len(SleepLegend))
	for i := range rows {
		rows[i] = make([]float64, len(kept))
	}
	for i, b := range kept {
		rows[0][i] = Round(b.Stages.Deep/60, 1)
		rows[1][i] = Round(b.Stages.Light/60, 1)
		rows[2][i] = Round(b.Stages.REM/60, 1)
		rows[3][i] = Round(b.Stages.Awake/60, 1)
	}

	return &Series{
		Metric:    d.Metric,
		Period:    period,
		ChartType: ChartStacked,
		Unit:      d.Unit,
		Labels:    Labels(kept, period),
		Points:    rows,
		Legend:    append([]string(nil), SleepLegend...),
	}
}
