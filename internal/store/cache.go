package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sadopc/leadr/internal/lead"
)

// SaveSnapshot replaces the cached lead list with leads, keeping their order.
func (s *Store) SaveSnapshot(leads []lead.Lead, fetchedAt time.Time, preset lead.Preset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM lead_cache`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO lead_cache (id, position, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range leads {
		payload, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encode lead %s: %w", l.ID, err)
		}
		if _, err := stmt.Exec(l.ID, i, string(payload)); err != nil {
			return fmt.Errorf("cache lead %s: %w", l.ID, err)
		}
	}

	meta := [][2]string{
		{"cache_fetched_at", formatTime(fetchedAt)},
		{"cache_date_preset", string(nonEmptyPreset(preset))},
	}
	for _, kv := range meta {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			kv[0], kv[1],
		); err != nil {
			return fmt.Errorf("save cache metadata: %w", err)
		}
	}
	return tx.Commit()
}

// LoadSnapshot returns the cached leads. An empty cache yields a zero
// Snapshot and no error. Rows that no longer decode are skipped.
func (s *Store) LoadSnapshot() (Snapshot, error) {
	rows, err := s.db.Query(`SELECT payload FROM lead_cache ORDER BY position`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read cache: %w", err)
	}
	defer rows.Close()

	var snap Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return Snapshot{}, err
		}
		var l lead.Lead
		if err := json.Unmarshal([]byte(payload), &l); err != nil {
			continue
		}
		snap.Leads = append(snap.Leads, l)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	if len(snap.Leads) == 0 {
		return Snapshot{}, nil
	}

	if v, err := s.GetSetting("cache_fetched_at"); err == nil {
		snap.FetchedAt = parseTime(v)
	}
	if v, err := s.GetSetting("cache_date_preset"); err == nil {
		snap.DateRange = lead.Preset(v)
	}
	return snap, nil
}
