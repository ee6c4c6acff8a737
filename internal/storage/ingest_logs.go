package storage

import (
	"context"
	"fmt"
	"time"
)

// IngestLog represents the outcome of one record ingest request.
type IngestLog struct {
	ID              int64     `json:"id"`
	UserID          int       `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
	Status          string    `json:"status"`
	RecordsReceived int       `json:"records_received"`
	RecordsInserted int64     `json:"records_inserted"`
	Families        []string  `json:"families"`
	DurationMs      *int      `json:"duration_ms"`
	ErrorMessage    *string   `json:"error_message"`
}

// InsertIngestLog creates a new ingest log entry and returns its ID.
func (db *DB) InsertIngestLog(ctx context.Context, log IngestLog) (int64, error) {
	if log.Families == nil {
		log.Families = []string{}
	}
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO ingest_logs (user_id, status, records_received, records_inserted, families, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		log.UserID, log.Status, log.RecordsReceived, log.RecordsInserted,
		log.Families, log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting ingest log: %w", err)
	}
	return id, nil
}

// QueryIngestLogs returns the most recent ingest logs for a user.
func (db *DB) QueryIngestLogs(ctx context.Context, userID, limit int) ([]IngestLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, status, records_received, records_inserted,
		 families, duration_ms, error_message
		 FROM ingest_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingest logs: %w", err)
	}
	defer rows.Close()

	var result []IngestLog
	for rows.Next() {
		var l IngestLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Status,
			&l.RecordsReceived, &l.RecordsInserted, &l.Families, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning ingest log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
