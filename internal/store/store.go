// Package store keeps leadr's local state in SQLite: console preferences,
// the last fetched lead snapshot and the status transition journal.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// timeLayout is fixed width in UTC so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lead_cache (
		id        TEXT PRIMARY KEY,
		position  INTEGER NOT NULL,
		payload   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transitions (
		id           TEXT PRIMARY KEY,
		lead_id      TEXT NOT NULL,
		lead_name    TEXT NOT NULL DEFAULT '',
		from_status  TEXT NOT NULL,
		to_status    TEXT NOT NULL,
		outcome      TEXT NOT NULL,
		error        TEXT NOT NULL DEFAULT '',
		started_at   TEXT NOT NULL,
		settled_at   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transitions_lead    ON transitions(lead_id);
	CREATE INDEX IF NOT EXISTS idx_transitions_settled ON transitions(settled_at);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('filter_source',  'all'),
		('filter_status',  'all'),
		('sort_by',        'createdAt'),
		('sort_order',     'desc'),
		('date_preset',    'all'),
		('date_from',      ''),
		('date_to',        ''),
		('default_view',   'board');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/leadr/leadr.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "leadr", "leadr.db"), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
