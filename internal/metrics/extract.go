package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/claude/healthtrends/internal/models"
)

// SleepStages holds per-night stage durations in minutes.
type SleepStages struct {
	Deep  float64 `json:"deep_minutes"`
	Light float64 `json:"light_minutes"`
	REM   float64 `json:"rem_minutes"`
	Awake float64 `json:"awake_minutes"`
}

// Total returns the sum of all four stages.
func (s SleepStages) Total() float64 {
	return s.Deep + s.Light + s.REM + s.Awake
}

// ExtractedPoint is one dated value pulled out of a raw record. A nil Value
// means the record had no usable reading; zero is a real reading.
type ExtractedPoint struct {
	Date   time.Time
	Value  *float64
	Stages *SleepStages
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Extract pulls the value of d out of rec and rounds it per d.DecimalPlaces.
// heightCM is only consulted for BMI.
func Extract(d Descriptor, rec models.RawHealthRecord, heightCM float64) *float64 {
	var (
		v  float64
		ok bool
	)

	switch d.Extraction {
	case ExtractBMI:
		v, ok = bmiFromRecord(rec, heightCM)
	case ExtractSleep:
		v, ok = sleepHours(rec)
	case ExtractHydration:
		v, ok = firstNumber(rec, d.Fields)
		v /= GlassML
	default:
		v, ok = firstNumber(rec, d.Fields)
	}

	if !ok {
		return nil
	}
	if d.PositiveOnly && v <= 0 {
		return nil
	}
	v = Round(v, d.DecimalPlaces)
	return &v
}

// firstNumber returns the first field of fields holding a numeric value.
func firstNumber(rec models.RawHealthRecord, fields []string) (float64, bool) {
	for _, f := range fields {
		if v, ok := rec.Number(f); ok {
			return v, true
		}
	}
	return 0, false
}

func bmiFromRecord(rec models.RawHealthRecord, heightCM float64) (float64, bool) {
	weight, ok := rec.Number("weight")
	if !ok || weight <= 0 || heightCM <= 0 {
		return 0, false
	}
	m := heightCM / 100
	return weight / (m * m), true
}

// sleepHours returns actual sleep time; awake_minutes defaults to zero.
func sleepHours(rec models.RawHealthRecord) (float64, bool) {
	total, ok := rec.Number("duration_minutes")
	if !ok {
		return 0, false
	}
	awake, _ := rec.Number("awake_minutes")
	return (total - awake) / 60, true
}

// extractStages reads stage minutes from a sleep record. Records without any
// stage field carry no stage data.
func extractStages(rec models.RawHealthRecord) *SleepStages {
	if !rec.Has("deep_minutes") && !rec.Has("light_minutes") &&
		!rec.Has("rem_minutes") && !rec.Has("awake_minutes") {
		return nil
	}
	var s SleepStages
	s.Deep, _ = rec.Number("deep_minutes")
	s.Light, _ = rec.Number("light_minutes")
	s.REM, _ = rec.Number("rem_minutes")
	s.Awake, _ = rec.Number("awake_minutes")
	return &s
}

// ExtractAll converts records into points sorted ascending by date. Records
// without a parseable timestamp cannot be placed and are skipped; the number
// skipped is returned.
func ExtractAll(d Descriptor, records []models.RawHealthRecord, heightCM float64) ([]ExtractedPoint, int) {
	points := make([]ExtractedPoint, 0, len(records))
	skipped := 0
	for _, rec := range records {
		t, ok := rec.Time()
		if !ok {
			skipped++
			continue
		}
		p := ExtractedPoint{Date: t, Value: Extract(d, rec, heightCM)}
		if d.Extraction == ExtractSleep {
			p.Stages = extractStages(rec)
		}
		points = append(points, p)
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, skipped
}
