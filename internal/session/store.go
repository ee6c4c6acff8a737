package session

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

// ErrNoToken is returned when no token has been saved for the profile.
var ErrNoToken = errors.New("not logged in")

// Store persists API auth tokens between runs.
type Store struct {
	db      *sql.DB
	profile string
}

// Open opens (or creates) the SQLite session database at dir/session.db.
// profile selects which saved login the store reads and writes.
func Open(dir, profile string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating session dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "session.db"))
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		profile    TEXT PRIMARY KEY,
		base_url   TEXT NOT NULL,
		token      TEXT NOT NULL,
		saved_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tokens table: %w", err)
	}

	if profile == "" {
		profile = "default"
	}
	return &Store{db: db, profile: profile}, nil
}

// Token returns the saved token for the store's profile.
func (s *Store) Token(ctx context.Context) (string, error) {
	var tok string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM tokens WHERE profile = ?`, s.profile,
	).Scan(&tok)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return tok, nil
}

// Login describes a saved token.
type Login struct {
	Profile string
	BaseURL string
	SavedAt time.Time
}

// Save stores token for baseURL under the store's profile.
func (s *Store) Save(ctx context.Context, baseURL, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tokens (profile, base_url, token, saved_at) VALUES (?, ?, ?, ?)`,
		s.profile, baseURL, token, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// Current returns the saved login details without the token.
func (s *Store) Current(ctx context.Context) (*Login, error) {
	l := &Login{Profile: s.profile}
	err := s.db.QueryRowContext(ctx,
		`SELECT base_url, saved_at FROM tokens WHERE profile = ?`, s.profile,
	).Scan(&l.BaseURL, &l.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("reading login: %w", err)
	}
	return l, nil
}

// Clear removes the saved token.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE profile = ?`, s.profile)
	return err
}

// Close closes the session database.
func (s *Store) Close() error {
	return s.db.Close()
}
