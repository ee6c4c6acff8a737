package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/claude/healthtrends/internal/models"
)

// rec builds a record dated day with alternating field/value pairs.
func rec(day string, kv ...any) models.RawHealthRecord {
	r := models.RawHealthRecord{"date": day}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i].(string)] = kv[i+1]
	}
	return r
}

// consecutiveDays returns n records of field starting at start, valued by fn.
func consecutiveDays(start time.Time, n int, field string, fn func(i int) float64) []models.RawHealthRecord {
	out := make([]models.RawHealthRecord, n)
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = rec(day, field, fn(i))
	}
	return out
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseFlexTime(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func ptr(v float64) *float64 { return &v }

func mustLookup(t *testing.T, m Metric) Descriptor {
	t.Helper()
	d, err := Lookup(m)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if fmt.Sprintf("%.4f", a[i]) != fmt.Sprintf("%.4f", b[i]) {
			return false
		}
	}
	return true
}
