package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/claude/healthtrends/internal/models"
)

const recordColumns = 4

// buildRecordInsert renders a multi-row insert for rows. Duplicate
// (user, family, timestamp) rows are skipped.
func buildRecordInsert(rows []models.HealthRecordRow) (string, []any, error) {
	args := make([]any, 0, len(rows)*recordColumns)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return "", nil, fmt.Errorf("encoding record fields: %w", err)
		}
		base := i * recordColumns
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		args = append(args, r.UserID, r.Family, r.RecordedAt, fields)
	}

	query := `INSERT INTO health_records (user_id, family, recorded_at, fields) VALUES ` +
		strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"
	return query, args, nil
}

// InsertRecords batch-inserts raw records. Returns the number actually
// inserted.
func (db *DB) InsertRecords(ctx context.Context, rows []models.HealthRecordRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	query, args, err := buildRecordInsert(rows)
	if err != nil {
		return 0, err
	}
	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting health records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryRecords returns the records of one family recorded at or after since,
// oldest first, capped at limit (0 for no cap). The timestamp is exposed as
// the record's "date" field.
func (db *DB) QueryRecords(ctx context.Context, userID int, family string, since time.Time, limit int) ([]models.RawHealthRecord, error) {
	query := `SELECT recorded_at, fields FROM (
		SELECT recorded_at, fields FROM health_records
		WHERE user_id = $1 AND family = $2 AND recorded_at >= $3
		ORDER BY recorded_at DESC`
	args := []any{userID, family, since}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}
	query += `) recent ORDER BY recorded_at ASC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying health records: %w", err)
	}
	defer rows.Close()

	var out []models.RawHealthRecord
	for rows.Next() {
		var (
			at  time.Time
			raw []byte
		)
		if err := rows.Scan(&at, &raw); err != nil {
			return nil, fmt.Errorf("scanning health record: %w", err)
		}
		rec := models.RawHealthRecord{}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decoding health record: %w", err)
		}
		rec["date"] = at.UTC().Format(time.RFC3339)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestRecord returns the most recent record of a family, or nil.
func (db *DB) LatestRecord(ctx context.Context, userID int, family string) (models.RawHealthRecord, error) {
	recs, err := db.QueryRecords(ctx, userID, family, time.Time{}, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}
