package metrics

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Period is the requested chart granularity.
type Period string

const (
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Week, Month, Year:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

const (
	weekWindow         = 7
	monthWindow        = 30
	yearWindow         = 365
	yearFallbackMonths = 12
)

// Month view sampling keeps labels readable on narrow charts. The thresholds
// have no deeper rationale and may be tuned.
var (
	MonthCoarseThreshold = 20
	MonthCoarseStride    = 3
	MonthFineThreshold   = 12
	MonthFineStride      = 2
)

// BucketedPoint is one output bucket: a day for week/month, a month start for year.
type BucketedPoint struct {
	Date   time.Time
	Value  float64
	Stages *SleepStages
}

// sample is a dated reading with one value per channel. Single-series metrics
// have one channel; body composition has three.
type sample struct {
	date   time.Time
	values []*float64
	stages *SleepStages
}

type bucket struct {
	date   time.Time
	values []float64
	stages *SleepStages
}

// Bucket groups points (sorted ascending by date) into period buckets.
// Week and month keep the trailing days verbatim, skipping points without a
// value; year averages per calendar month and emits 0 for empty months.
// Year means are rounded to places. now anchors the empty-year fallback.
func Bucket(points []ExtractedPoint, period Period, places int, now time.Time) ([]BucketedPoint, error) {
	samples := make([]sample, len(points))
	for i, p := range points {
		samples[i] = sample{date: p.Date, values: []*float64{p.Value}, stages: p.Stages}
	}

	buckets, err := bucketSamples(samples, 1, period, places, now)
	if err != nil {
		return nil, err
	}

	out := make([]BucketedPoint, len(buckets))
	for i, b := range buckets {
		out[i] = BucketedPoint{Date: b.date, Value: b.values[0], Stages: b.stages}
	}
	return out, nil
}

func bucketSamples(samples []sample, channels int, period Period, places int, now time.Time) ([]bucket, error) {
	switch period {
	case Week:
		return daily(trailing(present(samples), weekWindow), channels), nil
	case Month:
		recent := trailing(present(samples), monthWindow)
		return daily(thin(recent), channels), nil
	case Year:
		return monthly(trailing(samples, yearWindow), channels, places, now), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
}

// present drops samples with no value in any channel. Samples carrying
// sleep stages are kept so stage-only nights can still be stacked.
func present(samples []sample) []sample {
	out := make([]sample, 0, len(samples))
	for _, s := range samples {
		if s.stages != nil {
			out = append(out, s)
			continue
		}
		for _, v := range s.values {
			if v != nil {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func trailing(samples []sample, n int) []sample {
	if len(samples) <= n {
		return samples
	}
	return samples[len(samples)-n:]
}

// thin applies the month view sampling stride.
func thin(samples []sample) []sample {
	stride := 1
	switch {
	case len(samples) > MonthCoarseThreshold:
		stride = MonthCoarseStride
	case len(samples) > MonthFineThreshold:
		stride = MonthFineStride
	}
	if stride == 1 {
		return samples
	}
	out := make([]sample, 0, len(samples)/stride+1)
	for i := 0; i < len(samples); i += stride {
		out = append(out, samples[i])
	}
	return out
}

// daily emits one bucket per sample. A channel missing from a kept sample
// renders as 0 so that multi-series rows stay aligned.
func daily(samples []sample, channels int) []bucket {
	out := make([]bucket, len(samples))
	for i, s := range samples {
		vals := make([]float64, channels)
		for c := 0; c < channels && c < len(s.values); c++ {
			if s.values[c] != nil {
				vals[c] = *s.values[c]
			}
		}
		out[i] = bucket{date: s.date, values: vals, stages: s.stages}
	}
	return out
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthSpan lists the month starts covering samples, or the trailing
// yearFallbackMonths ending at now when there are none.
func monthSpan(samples []sample, now time.Time) []time.Time {
	if len(samples) == 0 {
		end := monthStart(now)
		months := make([]time.Time, 0, yearFallbackMonths)
		for i := yearFallbackMonths - 1; i >= 0; i-- {
			months = append(months, end.AddDate(0, -i, 0))
		}
		return months
	}

	first := monthStart(samples[0].date)
	last := monthStart(samples[len(samples)-1].date)
	var months []time.Time
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

type monthAcc struct {
	sums       []float64
	counts     []int
	stageSum   SleepStages
	stageCount int
}

func monthly(samples []sample, channels int, places int, now time.Time) []bucket {
	months := monthSpan(samples, now)
	accs := make(map[string]*monthAcc, len(months))
	for _, m := range months {
		accs[m.Format("2006-01")] = &monthAcc{
			sums:   make([]float64, channels),
			counts: make([]int, channels),
		}
	}

	for _, s := range samples {
		acc, ok := accs[s.date.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		for c := 0; c < channels && c < len(s.values); c++ {
			if s.values[c] != nil {
				acc.sums[c] += *s.values[c]
				acc.counts[c]++
			}
		}
		if s.stages != nil {
			acc.stageSum.Deep += s.stages.Deep
			acc.stageSum.Light += s.stages.Light
			acc.stageSum.REM += s.stages.REM
			acc.stageSum.Awake += s.stages.Awake
			acc.stageCount++
		}
	}

	out := make([]bucket, len(months))
	for i, m := range months {
		acc := accs[m.Format("2006-01")]
		vals := make([]float64, channels)
		for c := range vals {
			if acc.counts[c] > 0 {
				vals[c] = Round(acc.sums[c]/float64(acc.counts[c]), places)
			}
		}
		b := bucket{date: m, values: vals}
		if acc.stageCount > 0 {
			n := float64(acc.stageCount)
			b.stages = &SleepStages{
				Deep:  math.Round(acc.stageSum.Deep / n),
				Light: math.Round(acc.stageSum.Light / n),
				REM:   math.Round(acc.stageSum.REM / n),
				Awake: math.Round(acc.stageSum.Awake / n),
			}
		}
		out[i] = b
	}
	return out
}

// Label formats a bucket date for the given period: "Jan" for year, the day
// of month for month, "M/D" for week.
func Label(t time.Time, period Period) string {
	switch period {
	case Year:
		return t.Format("Jan")
	case Month:
		return strconv.Itoa(t.Day())
	default:
		return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
	}
}

// Labels formats every bucket date.
func Labels(points []BucketedPoint, period Period) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = Label(p.Date, period)
	}
	return out
}
