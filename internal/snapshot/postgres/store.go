// Package postgres provides a PostgreSQL-backed baseline store for shared
// regression runs (CI and multiple developers comparing against the same
// accepted baselines).
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/quantfix/bondregress/internal/snapshot"
)

const queryTimeout = 5 * time.Second

// Store persists baselines in a single table keyed by test case id, with the
// snapshot serialized as JSONB.
type Store struct {
	db *sqlx.DB
}

// New connects to PostgreSQL and verifies the connection.
func New(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", snapshot.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection (for testing).
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the baselines table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS baselines (
			test_case_id TEXT PRIMARY KEY,
			snapshot     JSONB NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("%w: ensure schema: %v", snapshot.ErrStoreUnavailable, err)
	}
	return nil
}

// Read loads the baseline for a test case, returning (nil, nil) when none
// has been accepted yet.
func (s *Store) Read(ctx context.Context, testCaseID string) (*snapshot.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var raw []byte
	err := s.db.GetContext(ctx, &raw,
		`SELECT snapshot FROM baselines WHERE test_case_id = $1`, testCaseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			log.Error().Str("code", string(pqErr.Code)).Str("test_case", testCaseID).
				Msg("baseline read failed")
		}
		return nil, fmt.Errorf("%w: read baseline %s: %v", snapshot.ErrStoreUnavailable, testCaseID, err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: parse baseline %s: %v", snapshot.ErrStoreUnavailable, testCaseID, err)
	}
	return &snap, nil
}

// Write upserts the baseline for a test case.
func (s *Store) Write(ctx context.Context, testCaseID string, snap snapshot.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode baseline %s: %v", snapshot.ErrStoreUnavailable, testCaseID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO baselines (test_case_id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (test_case_id)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()`,
		testCaseID, raw)
	if err != nil {
		return fmt.Errorf("%w: write baseline %s: %v", snapshot.ErrStoreUnavailable, testCaseID, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
