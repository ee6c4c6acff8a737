package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// StateDB tracks the newest record mirrored per family so reruns only send
// what is new.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/mirror.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "mirror.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS mirrored_families (
		target      TEXT NOT NULL,
		family      TEXT NOT NULL,
		latest      TIMESTAMP NOT NULL,
		mirrored_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (target, family)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// Latest returns the newest mirrored timestamp of family on target, or the
// zero time when nothing has been mirrored yet.
func (s *StateDB) Latest(ctx context.Context, target, family string) (time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT latest FROM mirrored_families WHERE target = ? AND family = ?`,
		target, family,
	).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading mirror state: %w", err)
	}
	return t, nil
}

// MarkMirrored records latest as the newest mirrored timestamp of family.
func (s *StateDB) MarkMirrored(ctx context.Context, target, family string, latest time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO mirrored_families (target, family, latest, mirrored_at) VALUES (?, ?, ?, ?)`,
		target, family, latest.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving mirror state: %w", err)
	}
	return nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}
