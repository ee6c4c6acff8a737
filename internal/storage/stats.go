package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored records.
type DataStats struct {
	TotalRecords int64        `json:"total_records"`
	EarliestData *time.Time   `json:"earliest_data"`
	LatestData   *time.Time   `json:"latest_data"`
	ByFamily     []FamilyStat `json:"by_family"`
	TargetCount  int64        `json:"target_count"`
}

// FamilyStat summarizes one record family.
type FamilyStat struct {
	Family string    `json:"family"`
	Count  int64     `json:"count"`
	Latest time.Time `json:"latest"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(recorded_at), MAX(recorded_at) FROM health_records WHERE user_id = $1`, userID,
	).Scan(&stats.TotalRecords, &stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM targets WHERE user_id = $1`, userID,
	).Scan(&stats.TargetCount)
	if err != nil {
		return nil, fmt.Errorf("counting targets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT family, COUNT(*), MAX(recorded_at)
		 FROM health_records
		 WHERE user_id = $1
		 GROUP BY family
		 ORDER BY family`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying records by family: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s FamilyStat
		if err := rows.Scan(&s.Family, &s.Count, &s.Latest); err != nil {
			return nil, fmt.Errorf("scanning family stat: %w", err)
		}
		stats.ByFamily = append(stats.ByFamily, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
