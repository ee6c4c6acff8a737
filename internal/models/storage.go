package models

import (
	"time"
)

// HealthRecordRow is a row ready for insertion into the health_records table.
type HealthRecordRow struct {
	UserID     int             `json:"-"`
	Family     string          `json:"family"`
	RecordedAt time.Time       `json:"recorded_at"`
	Fields     RawHealthRecord `json:"fields"`
}

// ProfileRow is a row of the profiles table.
type ProfileRow struct {
	UserID      int        `json:"-"`
	HeightCM    *float64   `json:"height_cm"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Sex         string     `json:"sex"`
}

// TargetRow is a row of the targets table. Values use the storage unit of the
// target type: kg for ideal_weight, mL for water.
type TargetRow struct {
	UserID     int     `json:"-"`
	TargetType string  `json:"target_type"`
	Value      float64 `json:"target_value"`
	Unit       string  `json:"unit"`
}
