package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawHealthRecord is one entry returned by the health API for a metric family.
// Field names vary between endpoints, so the record is kept as a loose JSON object
// and values are read through Number and Time.
type RawHealthRecord map[string]any

// dateFields is the fallback chain for a record's timestamp.
var dateFields = []string{"date", "recorded_at", "measured_at"}

// Accepted timestamp layouts, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Number returns the numeric value of field. Missing, null, non-numeric and
// non-finite values report false.
func (r RawHealthRecord) Number(field string) (float64, bool) {
	raw, ok := r[field]
	if !ok || raw == nil {
		return 0, false
	}

	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Has reports whether field is present with a non-null value.
func (r RawHealthRecord) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// Time returns the record timestamp in UTC using the first parseable date
// field.
func (r RawHealthRecord) Time() (time.Time, bool) {
	for _, f := range dateFields {
		s, ok := r[f].(string)
		if !ok || s == "" {
			continue
		}
		if t, err := ParseFlexTime(s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseFlexTime parses the timestamp layouts the health API emits.
func ParseFlexTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}

// RecordSet is the decoded body of a history endpoint.
type RecordSet struct {
	Records     []RawHealthRecord `json:"records"`
	DisplayUnit string            `json:"display_unit,omitempty"`
}

// recordEnvelope is the {success, data} wrapper some endpoints use.
type recordEnvelope struct {
	Success     bool              `json:"success"`
	Data        []RawHealthRecord `json:"data"`
	DisplayUnit string            `json:"display_unit"`
}

// DecodeRecords decodes either a bare JSON array of records or a
// {success, data} envelope. An envelope with success=false yields an empty set.
func DecodeRecords(body []byte) (RecordSet, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return RecordSet{}, fmt.Errorf("decoding records: empty body")
	}

	if trimmed[0] == '[' {
		var records []RawHealthRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return RecordSet{}, fmt.Errorf("decoding record array: %w", err)
		}
		return RecordSet{Records: records}, nil
	}

	var env recordEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return RecordSet{}, fmt.Errorf("decoding record envelope: %w", err)
	}
	set := RecordSet{DisplayUnit: env.DisplayUnit}
	if env.Success {
		set.Records = env.Data
	}
	return set, nil
}
