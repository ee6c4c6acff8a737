package storage

import (
	"context"
	"time"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/claude/healthtrends/internal/models"
)

// Record windows mirror the remote API: recent endpoints return the last 30
// days and year requests are capped at 365 records.
const (
	recentWindow = 30 * 24 * time.Hour
	yearWindow   = 366 * 24 * time.Hour
	yearLimit    = 365
)

// UserSource serves one user's locally stored data to the chart pipeline.
type UserSource struct {
	db     *DB
	userID int
	now    func() time.Time
}

var (
	_ metrics.RecordSource  = (*UserSource)(nil)
	_ metrics.ProfileSource = (*UserSource)(nil)
	_ metrics.TargetSource  = (*UserSource)(nil)
)

// ForUser returns a source scoped to userID.
func (db *DB) ForUser(userID int) *UserSource {
	return &UserSource{db: db, userID: userID, now: time.Now}
}

// window returns the earliest timestamp and record cap for a period.
func window(period metrics.Period, now time.Time) (time.Time, int) {
	if period == metrics.Year {
		return now.Add(-yearWindow), yearLimit
	}
	return now.Add(-recentWindow), 0
}

func (s *UserSource) FetchRecords(ctx context.Context, d metrics.Descriptor, period metrics.Period) (models.RecordSet, error) {
	since, limit := window(period, s.now())
	recs, err := s.db.QueryRecords(ctx, s.userID, string(d.Family), since, limit)
	if err != nil {
		return models.RecordSet{}, err
	}
	return models.RecordSet{Records: recs}, nil
}

func (s *UserSource) FetchProfile(ctx context.Context) (*models.Profile, error) {
	row, err := s.db.GetProfile(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	p := &models.Profile{}
	if row == nil {
		return p, nil
	}
	if row.HeightCM != nil {
		p.HeightCM = *row.HeightCM
	}
	p.DateOfBirth = row.DateOfBirth
	p.Sex = row.Sex
	return p, nil
}

// FetchLatestWeight reads the weight of the latest body composition scan.
func (s *UserSource) FetchLatestWeight(ctx context.Context) (float64, error) {
	rec, err := s.db.LatestRecord(ctx, s.userID, string(metrics.FamilyBodyComposition))
	if err != nil || rec == nil {
		return 0, err
	}
	w, _ := rec.Number("weight")
	return w, nil
}

func (s *UserSource) FetchTarget(ctx context.Context, key string) (*float64, error) {
	return s.db.GetTarget(ctx, s.userID, key)
}
