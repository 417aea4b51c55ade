// Package eventstore is the SQLite-backed persistence layer for
// SentinelSpace: assets, screening jobs, conjunction events, maneuver
// options, and alerts. Schema mirrors the SQLAlchemy model set it was
// ported from; migrations run through goose against an embedded SQL file.
package eventstore

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a sqlite-backed *sqlx.DB and implements persistence for every
// SentinelSpace record type, plus the supervisor.Store interface.
type Store struct {
	db *sqlx.DB
}

// Open connects to the sqlite database at dsn and applies any pending
// migrations. A single open connection is enforced: sqlite serializes
// writers regardless, and a shared single connection avoids "database is
// locked" errors under concurrent access from the worker pool.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("eventstore: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("eventstore: set dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("eventstore: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Counts summarizes the row counts backing Platform.Snapshot.
type Counts struct {
	Assets       int64
	Jobs         int64
	Conjunctions int64
	Alerts       int64
}

// Counts reports current row counts across the core tables.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	if err := s.db.GetContext(ctx, &c.Assets, `SELECT COUNT(*) FROM assets`); err != nil {
		return Counts{}, fmt.Errorf("eventstore: count assets: %w", err)
	}
	if err := s.db.GetContext(ctx, &c.Jobs, `SELECT COUNT(*) FROM screening_jobs`); err != nil {
		return Counts{}, fmt.Errorf("eventstore: count jobs: %w", err)
	}
	if err := s.db.GetContext(ctx, &c.Conjunctions, `SELECT COUNT(*) FROM conjunction_events`); err != nil {
		return Counts{}, fmt.Errorf("eventstore: count conjunctions: %w", err)
	}
	if err := s.db.GetContext(ctx, &c.Alerts, `SELECT COUNT(*) FROM alerts`); err != nil {
		return Counts{}, fmt.Errorf("eventstore: count alerts: %w", err)
	}
	return c, nil
}
