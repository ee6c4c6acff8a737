package metrics

import (
	"sort"
	"time"

	"github.com/claude/healthtrends/internal/models"
)

// Deduplicate keeps, for every UTC calendar day, only the record with the latest
// timestamp. Used for body-composition scans, where a user may weigh in several
// times a day. Records without a timestamp are dropped. The result is sorted
// ascending by time; the input is not modified.
func Deduplicate(records []models.RawHealthRecord) []models.RawHealthRecord {
	type entry struct {
		at  time.Time
		rec models.RawHealthRecord
	}
	latest := make(map[string]entry, len(records))

	for _, rec := range records {
		t, ok := rec.Time()
		if !ok {
			continue
		}
		key := t.UTC().Format("2006-01-02")
		if cur, seen := latest[key]; !seen || t.After(cur.at) {
			latest[key] = entry{at: t, rec: rec}
		}
	}

	entries := make([]entry, 0, len(latest))
	for _, e := range latest {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].at.Before(entries[j].at)
	})

	out := make([]models.RawHealthRecord, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out
}
