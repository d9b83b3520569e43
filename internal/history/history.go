// Package history persists completed update checks to a local sqlite database
// so the CLI can show when a check last ran and what it found.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	SchemaVersion = 1
)

// Store wraps the sqlite connection holding the check audit trail.
type Store struct {
	conn *sql.DB
}

// Record is one completed check. Error is empty for checks that finished
// cleanly; RemoteVersion is empty when the check failed before parsing one.
type Record struct {
	ID              int64
	CheckedAt       time.Time
	LocalVersion    string
	RemoteVersion   string
	UpdateAvailable bool
	Error           string
}

// Open opens (or creates) the history database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=10000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	store := &Store{conn: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// migrate applies database migrations
func (s *Store) migrate() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	for version < SchemaVersion {
		version++
		switch version {
		case 1:
			if err := applySchemaV1(tx); err != nil {
				return fmt.Errorf("failed to apply schema v%d: %w", version, err)
			}
		default:
			return fmt.Errorf("unknown schema version: %d", version)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func applySchemaV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS checks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			checked_at TEXT NOT NULL,
			local_version TEXT NOT NULL,
			remote_version TEXT NOT NULL DEFAULT '',
			update_available INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// Append stores one completed check.
func (s *Store) Append(rec Record) error {
	_, err := s.conn.Exec(`
		INSERT INTO checks (checked_at, local_version, remote_version, update_available, error)
		VALUES (?, ?, ?, ?, ?)`,
		rec.CheckedAt.UTC().Format(time.RFC3339),
		rec.LocalVersion,
		rec.RemoteVersion,
		rec.UpdateAvailable,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record check: %w", err)
	}
	return nil
}

// Recent returns up to limit checks, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	rows, err := s.conn.Query(`
		SELECT id, checked_at, local_version, remote_version, update_available, error
		FROM checks ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var checkedAt string
		if err := rows.Scan(&rec.ID, &checkedAt, &rec.LocalVersion, &rec.RemoteVersion, &rec.UpdateAvailable, &rec.Error); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, checkedAt); err == nil {
			rec.CheckedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
