package store

import (
	"fmt"
	"time"

	"github.com/sadopc/leadr/internal/lead"
)

const dateLayout = "2006-01-02"

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// LoadPreferences reads the persisted view preferences. Values that no
// longer parse fall back to defaults.
func (s *Store) LoadPreferences() (Preferences, error) {
	all, err := s.GetAllSettings()
	if err != nil {
		return Preferences{}, err
	}
	m := make(map[string]string, len(all))
	for _, st := range all {
		m[st.Key] = st.Value
	}

	def := lead.DefaultCriteria()
	p := Preferences{
		Source:      nonEmpty(m["filter_source"], lead.All),
		Status:      nonEmpty(m["filter_status"], lead.All),
		SortBy:      def.SortBy,
		Order:       def.Order,
		DateRange:   lead.DateRange{Preset: lead.PresetAll},
		DefaultView: nonEmpty(m["default_view"], "board"),
	}
	if k, err := lead.ParseSortKey(m["sort_by"]); err == nil {
		p.SortBy = k
	}
	if o, err := lead.ParseSortOrder(m["sort_order"]); err == nil {
		p.Order = o
	}
	if preset, err := lead.ParsePreset(m["date_preset"]); err == nil {
		p.DateRange.Preset = preset
	}
	if p.DateRange.Preset == lead.PresetCustom {
		from, errFrom := time.ParseInLocation(dateLayout, m["date_from"], time.Local)
		to, errTo := time.ParseInLocation(dateLayout, m["date_to"], time.Local)
		if errFrom != nil || errTo != nil {
			p.DateRange = lead.DateRange{Preset: lead.PresetAll}
		} else {
			p.DateRange.From, p.DateRange.To = from, to
		}
	}
	return p, nil
}

// SavePreferences writes every preference in a single transaction.
func (s *Store) SavePreferences(p Preferences) error {
	var from, to string
	if p.DateRange.Preset == lead.PresetCustom {
		from = p.DateRange.From.Format(dateLayout)
		to = p.DateRange.To.Format(dateLayout)
	}
	values := [][2]string{
		{"filter_source", nonEmpty(p.Source, lead.All)},
		{"filter_status", nonEmpty(p.Status, lead.All)},
		{"sort_by", string(p.SortBy)},
		{"sort_order", string(p.Order)},
		{"date_preset", string(nonEmptyPreset(p.DateRange.Preset))},
		{"date_from", from},
		{"date_to", to},
		{"default_view", nonEmpty(p.DefaultView, "board")},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	for _, kv := range values {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			kv[0], kv[1],
		); err != nil {
			return fmt.Errorf("save setting %q: %w", kv[0], err)
		}
	}
	return tx.Commit()
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func nonEmptyPreset(p lead.Preset) lead.Preset {
	if p == "" {
		return lead.PresetAll
	}
	return p
}
