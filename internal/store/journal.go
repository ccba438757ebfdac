package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/pipeline"
)

var _ pipeline.Journal = (*Store)(nil)

// RecordTransition appends a settled transition to the journal.
func (s *Store) RecordTransition(ctx context.Context, e pipeline.JournalEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (id, lead_id, lead_name, from_status, to_status, outcome, error, started_at, settled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TransitionID, e.LeadID, e.LeadName, string(e.From), string(e.To), e.Outcome, e.Error,
		formatTime(e.StartedAt), formatTime(e.SettledAt),
	)
	if err != nil {
		return fmt.Errorf("record transition %s: %w", e.TransitionID, err)
	}
	return nil
}

// RecentTransitions lists journal rows, newest first.
func (s *Store) RecentTransitions(f JournalFilter) ([]pipeline.JournalEntry, error) {
	query := `SELECT id, lead_id, lead_name, from_status, to_status, outcome, error, started_at, settled_at
		FROM transitions WHERE 1=1`
	var args []any

	if f.LeadID != "" {
		query += ` AND lead_id = ?`
		args = append(args, f.LeadID)
	}
	if f.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, f.Outcome)
	}
	if f.From != nil {
		query += ` AND settled_at >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND settled_at < ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY settled_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var entries []pipeline.JournalEntry
	for rows.Next() {
		var e pipeline.JournalEntry
		var from, to, startedAt, settledAt string
		if err := rows.Scan(&e.TransitionID, &e.LeadID, &e.LeadName, &from, &to, &e.Outcome, &e.Error, &startedAt, &settledAt); err != nil {
			return nil, err
		}
		e.From, e.To = lead.Status(from), lead.Status(to)
		e.StartedAt = parseTime(startedAt)
		e.SettledAt = parseTime(settledAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// OutcomeCounts tallies journal rows by outcome, most frequent first.
func (s *Store) OutcomeCounts() ([]OutcomeCount, error) {
	rows, err := s.db.Query(`SELECT outcome, COUNT(*) FROM transitions GROUP BY outcome ORDER BY COUNT(*) DESC, outcome`)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	var counts []OutcomeCount
	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.Outcome, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// PruneTransitions drops journal rows settled before cutoff.
func (s *Store) PruneTransitions(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM transitions WHERE settled_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	return res.RowsAffected()
}
