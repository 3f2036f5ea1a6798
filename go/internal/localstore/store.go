// Package localstore wraps the embedded SQLite database that holds every
// entity recorded on the device.
//
// The database runs in WAL mode so screens can read while a sync cycle
// holds the write transaction. All tables carry a sync_status column and
// a deleted tombstone; rows are only physically removed after the remote
// copy is gone.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/sqlutil"
)

// watermarkKey is the sync_state slot holding the last pull boundary
const watermarkKey = "last_pull_watermark"

// Store is the local relational store
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the database file at path.
//
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_txlock=immediate", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return &Store{conn: conn, path: path}, nil
}

// DB returns the underlying connection pool
func (s *Store) DB() *sql.DB {
	return s.conn
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close checkpoints the WAL and closes the pool
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Warn().Err(err).Msg("failed to checkpoint WAL")
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// RunAtomic executes fn in one transaction: all effects commit or none do
func (s *Store) RunAtomic(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return sqlutil.Run(ctx, s.conn, fn)
}

// Watermark returns the last persisted pull watermark, or the zero time
// when no pull has completed yet.
func (s *Store) Watermark(ctx context.Context) (time.Time, error) {
	return ReadWatermark(ctx, s.conn)
}

// ReadWatermark reads the watermark slot through q
func ReadWatermark(ctx context.Context, q sqlutil.DBTX) (time.Time, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, watermarkKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read watermark: %w", err)
	}
	return models.ParseTime(raw)
}

// SetWatermark persists t as the new pull watermark
func (s *Store) SetWatermark(ctx context.Context, t time.Time) error {
	return WriteWatermark(ctx, s.conn, t)
}

// WriteWatermark writes the watermark slot through q
func WriteWatermark(ctx context.Context, q sqlutil.DBTX, t time.Time) error {
	_, err := q.ExecContext(ctx, `
	INSERT INTO sync_state (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, watermarkKey, models.FormatTime(t))
	if err != nil {
		return fmt.Errorf("failed to write watermark: %w", err)
	}
	return nil
}
