// Package mirror copies records from the remote health API into a
// local-mode healthtrends server.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/claude/healthtrends/internal/models"
)

// Stats tracks mirror progress.
type Stats struct {
	Families        int
	RecordsFetched  int
	RecordsSkipped  int
	RecordsSent     int
	RecordsInserted int64
	Batches         int
}

// Mirror fetches each record family's last year from a source and pushes
// the records newer than the saved checkpoint.
type Mirror struct {
	src       metrics.RecordSource
	push      *Pusher
	state     *StateDB
	target    string
	dryRun    bool
	batchSize int
	log       *slog.Logger
	stats     Stats
}

// New creates a Mirror. target names the destination in the state database
// so one source can feed several servers.
func New(src metrics.RecordSource, push *Pusher, state *StateDB, target string, dryRun bool, batchSize int, log *slog.Logger) *Mirror {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Mirror{
		src:       src,
		push:      push,
		state:     state,
		target:    target,
		dryRun:    dryRun,
		batchSize: batchSize,
		log:       log,
	}
}

// families returns one descriptor per record family, in catalog order.
func families() []metrics.Descriptor {
	seen := make(map[metrics.Family]bool)
	var out []metrics.Descriptor
	for _, d := range metrics.Catalog() {
		if seen[d.Family] {
			continue
		}
		seen[d.Family] = true
		out = append(out, d)
	}
	return out
}

// Run mirrors every family and stops at the first failure.
func (m *Mirror) Run(ctx context.Context) (*Stats, error) {
	for _, d := range families() {
		if err := m.mirrorFamily(ctx, d); err != nil {
			return &m.stats, fmt.Errorf("mirroring %s: %w", d.Family, err)
		}
		m.stats.Families++
	}
	return &m.stats, nil
}

func (m *Mirror) mirrorFamily(ctx context.Context, d metrics.Descriptor) error {
	family := string(d.Family)
	since, err := m.state.Latest(ctx, m.target, family)
	if err != nil {
		return err
	}

	set, err := m.src.FetchRecords(ctx, d, metrics.Year)
	if err != nil {
		return err
	}
	rows, skipped := toRows(d.Family, set.Records, since)
	m.stats.RecordsFetched += len(set.Records)
	m.stats.RecordsSkipped += skipped

	m.log.Info("family fetched", "family", family, "records", len(set.Records), "new", len(rows))
	if m.dryRun || len(rows) == 0 {
		return nil
	}

	for start := 0; start < len(rows); start += m.batchSize {
		batch := rows[start:min(start+m.batchSize, len(rows))]
		res, err := m.push.Push(ctx, batch)
		if err != nil {
			return err
		}
		m.stats.Batches++
		m.stats.RecordsSent += len(batch)
		m.stats.RecordsInserted += res.Inserted

		if err := m.state.MarkMirrored(ctx, m.target, family, batch[len(batch)-1].RecordedAt); err != nil {
			return err
		}
	}
	return nil
}

// toRows converts records newer than since into insert rows, oldest first.
// Undated records are skipped.
func toRows(family metrics.Family, recs []models.RawHealthRecord, since time.Time) ([]models.HealthRecordRow, int) {
	rows := make([]models.HealthRecordRow, 0, len(recs))
	skipped := 0
	for _, r := range recs {
		t, ok := r.Time()
		if !ok || !t.After(since) {
			skipped++
			continue
		}
		rows = append(rows, models.HealthRecordRow{Family: string(family), RecordedAt: t, Fields: r})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RecordedAt.Before(rows[j].RecordedAt)
	})
	return rows, skipped
}
