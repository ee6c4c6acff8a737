package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Profile holds the user attributes needed for BMI and BMR.
type Profile struct {
	HeightCM    float64    `json:"height"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Sex         string     `json:"sex"`
}

// profilePayload mirrors /api/user/profile. Height and date of birth arrive
// in several shapes, so they are decoded loosely.
type profilePayload struct {
	Success bool `json:"success"`
	Data    *struct {
		Height      any    `json:"height"`
		DateOfBirth string `json:"date_of_birth"`
		Sex         string `json:"sex"`
	} `json:"data"`
}

// DecodeProfile decodes a {success, data} profile response. A response without
// data yields an empty profile rather than an error.
func DecodeProfile(body []byte) (*Profile, error) {
	var p profilePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if !p.Success || p.Data == nil {
		return &Profile{}, nil
	}

	prof := &Profile{Sex: p.Data.Sex}
	if h, ok := (RawHealthRecord{"height": p.Data.Height}).Number("height"); ok {
		prof.HeightCM = h
	}
	if p.Data.DateOfBirth != "" {
		if dob, err := ParseFlexTime(p.Data.DateOfBirth); err == nil {
			prof.DateOfBirth = &dob
		}
	}
	return prof, nil
}

// DecodeLatestWeight decodes /api/body-composition/latest and returns the
// weight in kg, or 0 when the response carries none.
func DecodeLatestWeight(body []byte) (float64, error) {
	var p struct {
		Success bool            `json:"success"`
		Data    RawHealthRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return 0, fmt.Errorf("decoding latest weight: %w", err)
	}
	if !p.Success || p.Data == nil {
		return 0, nil
	}
	w, _ := p.Data.Number("weight")
	return w, nil
}

// DecodeTarget decodes a /api/targets/{key} response. It returns nil when the
// body carries no usable target_value.
func DecodeTarget(body []byte) (*float64, error) {
	var p RawHealthRecord
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding target: %w", err)
	}
	v, ok := p.Number("target_value")
	if !ok {
		return nil, nil
	}
	return &v, nil
}
