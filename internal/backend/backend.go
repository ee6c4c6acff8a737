// Package backend wires a chart pipeline to the data source selected in the
// config: the remote health API or the local Postgres database.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/healthtrends/internal/config"
	"github.com/claude/healthtrends/internal/metrics"
	"github.com/claude/healthtrends/internal/session"
	"github.com/claude/healthtrends/internal/source"
	"github.com/claude/healthtrends/internal/storage"
)

// Backend resolves per-user pipelines.
type Backend struct {
	// DB is nil in remote mode.
	DB *storage.DB
	// Client is nil in local mode.
	Client *source.Client
	// UserID is the configured local user, or 1 in remote mode.
	UserID int

	log     *slog.Logger
	opts    []metrics.Option
	remote  *metrics.Pipeline
	session *session.Store
}

// Open connects the source named by cfg.Source.Mode. In local mode it runs
// migrations first and ensures the local user exists. obs may be nil.
func Open(ctx context.Context, cfg *config.Config, obs metrics.Observer, log *slog.Logger) (*Backend, error) {
	b := &Backend{log: log, UserID: 1}
	if obs != nil {
		b.opts = append(b.opts, metrics.WithObserver(obs))
	}

	switch cfg.Source.Mode {
	case config.ModeLocal:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, cfg.Database.MigrationsPath); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		db, err := storage.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		uid, err := db.GetOrCreateUser(ctx, cfg.Source.LocalUser, cfg.Source.LocalUser)
		if err != nil {
			db.Close()
			return nil, err
		}
		b.DB, b.UserID = db, uid
		log.Info("local source ready", "user", cfg.Source.LocalUser, "user_id", uid)

	default:
		tokens, err := b.tokenSource(cfg)
		if err != nil {
			return nil, err
		}
		b.Client = source.NewClient(cfg.Source.BaseURL, cfg.Source.Timeout(), tokens)
		b.remote = metrics.NewPipeline(metrics.Sources{
			Records: b.Client, Profile: b.Client, Targets: b.Client,
		}, log, b.opts...)
		log.Info("remote source ready", "base_url", cfg.Source.BaseURL)
	}
	return b, nil
}

// tokenSource prefers a configured token over the saved login session.
func (b *Backend) tokenSource(cfg *config.Config) (source.TokenSource, error) {
	if cfg.Source.Token != "" {
		return source.StaticToken(cfg.Source.Token), nil
	}
	store, err := session.Open(cfg.Session.Dir, cfg.Session.Profile)
	if err != nil {
		return nil, err
	}
	b.session = store
	return store, nil
}

// Pipeline returns the pipeline reading userID's data. Remote mode has a
// single account and ignores userID.
func (b *Backend) Pipeline(userID int) *metrics.Pipeline {
	if b.remote != nil {
		return b.remote
	}
	u := b.DB.ForUser(userID)
	return metrics.NewPipeline(metrics.Sources{Records: u, Profile: u, Targets: u}, b.log, b.opts...)
}

// Close releases the database pool and session store.
func (b *Backend) Close() {
	if b.DB != nil {
		b.DB.Close()
	}
	if b.session != nil {
		b.session.Close()
	}
}
