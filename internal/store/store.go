// Package store persists training runs and value-table checkpoints in a
// local SQLite database.
package store

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

// ErrNoCheckpoint is returned when no checkpoint exists for a variant.
var ErrNoCheckpoint = errors.New("store: no checkpoint found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	variant    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	episode    INTEGER NOT NULL,
	snapshot   BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, episode)
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_created ON checkpoints(created_at);
`

// Store wraps the checkpoint database. A single writer is assumed; SQLite
// is opened with one connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
// Parent directories are created as needed; ":memory:" is honored for
// tests.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun registers a training run before its first checkpoint.
func (s *Store) CreateRun(ctx context.Context, runID, variant string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(id, variant, created_at) VALUES (?, ?, ?)`,
		runID, variant, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("create run %s: %w", runID, err)
	}
	return nil
}

// SaveCheckpoint stores a value-table snapshot for a run at an episode
// count. Re-saving the same (run, episode) replaces the blob.
func (s *Store) SaveCheckpoint(ctx context.Context, runID string, episode int, snapshot []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints(run_id, episode, snapshot, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, episode) DO UPDATE SET
			snapshot = excluded.snapshot,
			created_at = excluded.created_at`,
		runID, episode, snapshot, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save checkpoint %s/%d: %w", runID, episode, err)
	}
	return nil
}

// LoadCheckpoint returns the snapshot stored for an exact (run, episode).
func (s *Store) LoadCheckpoint(ctx context.Context, runID string, episode int) ([]byte, error) {
	var snapshot []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM checkpoints WHERE run_id = ? AND episode = ?`,
		runID, episode).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s/%d: %w", runID, episode, err)
	}
	return snapshot, nil
}

// LatestSnapshot returns the most recent checkpoint blob saved for any run
// of the given variant, along with the episode it was taken at.
func (s *Store) LatestSnapshot(ctx context.Context, variant string) ([]byte, int, error) {
	var snapshot []byte
	var episode int
	err := s.db.QueryRowContext(ctx, `
		SELECT c.snapshot, c.episode
		FROM checkpoints c
		JOIN runs r ON r.id = c.run_id
		WHERE r.variant = ?
		ORDER BY c.created_at DESC, c.episode DESC
		LIMIT 1`,
		variant).Scan(&snapshot, &episode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNoCheckpoint
	}
	if err != nil {
		return nil, 0, fmt.Errorf("latest snapshot for %s: %w", variant, err)
	}
	return snapshot, episode, nil
}
