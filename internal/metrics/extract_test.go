package metrics

import (
	"testing"

	"github.com/claude/healthtrends/internal/models"
)

// TestExtract covers field fallback chains, formulas and null-versus-zero.
func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		metric   Metric
		rec      models.RawHealthRecord
		heightCM float64
		want     *float64
	}{
		{"weight", Weight, rec("2025-01-01", "weight", 80.04), 0, ptr(80)},
		{"weight as string", Weight, rec("2025-01-01", "weight", "79.86"), 0, ptr(79.9)},
		{"body fat primary", BodyFat, rec("2025-01-01", "fat_percentage", 21.3), 0, ptr(21.3)},
		{"body fat fallback", BodyFat, rec("2025-01-01", "body_fat_percentage", 22.0), 0, ptr(22)},
		{"body fat zero is missing", BodyFat, rec("2025-01-01", "fat_percentage", 0.0), 0, nil},
		{"steps fallback rounds", Steps, rec("2025-01-01", "step_count", 8123.6), 0, ptr(8124)},
		{"steps zero is a reading", Steps, rec("2025-01-01", "steps", 0.0), 0, ptr(0)},
		{"steps unparseable", Steps, rec("2025-01-01", "steps", "lots"), 0, nil},
		{"steps missing", Steps, rec("2025-01-01"), 0, nil},
		{"bmi", BMI, rec("2025-01-01", "weight", 70.0), 170, ptr(24.2)},
		{"bmi without height", BMI, rec("2025-01-01", "weight", 70.0), 0, nil},
		{"bmi without weight", BMI, rec("2025-01-01"), 170, nil},
		{"sleep", Sleep, rec("2025-01-01", "duration_minutes", 480.0, "awake_minutes", 30.0), 0, ptr(7.5)},
		{"sleep awake defaults to zero", Sleep, rec("2025-01-01", "duration_minutes", 420.0), 0, ptr(7)},
		{"hydration glasses", Hydration, rec("2025-01-01", "water_amount", 2000.0), 0, ptr(8)},
		{"hydration fallback", Hydration, rec("2025-01-01", "amount", 625.0), 0, ptr(2.5)},
		{"blood pressure systolic", BloodPressure, rec("2025-01-01", "systolic", 121.0, "diastolic", 79.0), 0, ptr(121)},
		{"heart rate chain", HeartRate, rec("2025-01-01", "avg_heart_rate", 64.25), 0, ptr(64.3)},
		{"nutrition total", Protein, rec("2025-01-01", "totalprotein", 92.4), 0, ptr(92)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(mustLookup(t, tt.metric), tt.rec, tt.heightCM)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Extract = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("Extract = nil, want %v", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("Extract = %v, want %v", *got, *tt.want)
			}
		})
	}
}

// TestExtractAllSortsAndSkipsUndated verifies output ordering, sleep stage
// attachment and the skipped count for records without a timestamp.
func TestExtractAllSortsAndSkipsUndated(t *testing.T) {
	records := []models.RawHealthRecord{
		rec("2025-01-03", "duration_minutes", 400.0, "deep_minutes", 60.0, "light_minutes", 200.0),
		{"duration_minutes": 300.0},
		rec("2025-01-01", "duration_minutes", 420.0),
	}
	points, skipped := ExtractAll(mustLookup(t, Sleep), records, 0)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if !points[0].Date.Before(points[1].Date) {
		t.Errorf("points not ascending: %v, %v", points[0].Date, points[1].Date)
	}
	if points[0].Stages != nil {
		t.Errorf("record without stage fields got stages %+v", points[0].Stages)
	}
	if points[1].Stages == nil || points[1].Stages.Deep != 60 {
		t.Errorf("stages = %+v, want deep 60", points[1].Stages)
	}
}
