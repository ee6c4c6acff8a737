package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/healthtrends/internal/models"
	"github.com/jackc/pgx/v5"
)

// UpsertProfile stores the attributes used for BMI and BMR.
func (db *DB) UpsertProfile(ctx context.Context, p models.ProfileRow) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO profiles (user_id, height_cm, date_of_birth, sex)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
			SET height_cm = EXCLUDED.height_cm,
			    date_of_birth = EXCLUDED.date_of_birth,
			    sex = EXCLUDED.sex,
			    updated_at = NOW()
	`, p.UserID, p.HeightCM, p.DateOfBirth, p.Sex)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// GetProfile returns the stored profile, or nil when none exists.
func (db *DB) GetProfile(ctx context.Context, userID int) (*models.ProfileRow, error) {
	p := models.ProfileRow{UserID: userID}
	err := db.Pool.QueryRow(ctx,
		`SELECT height_cm, date_of_birth, sex FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.HeightCM, &p.DateOfBirth, &p.Sex)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

// UpsertTarget stores a target in its storage unit.
func (db *DB) UpsertTarget(ctx context.Context, t models.TargetRow) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO targets (user_id, target_type, value, unit)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, target_type) DO UPDATE
			SET value = EXCLUDED.value, unit = EXCLUDED.unit, updated_at = NOW()
	`, t.UserID, t.TargetType, t.Value, t.Unit)
	if err != nil {
		return fmt.Errorf("upserting target: %w", err)
	}
	return nil
}

// GetTarget returns the stored target value for targetType, or nil.
func (db *DB) GetTarget(ctx context.Context, userID int, targetType string) (*float64, error) {
	var v float64
	err := db.Pool.QueryRow(ctx,
		`SELECT value FROM targets WHERE user_id = $1 AND target_type = $2`, userID, targetType,
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying target: %w", err)
	}
	return &v, nil
}
