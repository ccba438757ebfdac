package store

import (
	"time"

	"github.com/sadopc/leadr/internal/lead"
)

type Setting struct {
	Key   string
	Value string
}

// Preferences are the persisted parts of the console's view state. The
// search term is not persisted.
type Preferences struct {
	Source      string
	Status      string
	SortBy      lead.SortKey
	Order       lead.SortOrder
	DateRange   lead.DateRange
	DefaultView string
}

// Criteria builds the view criteria the preferences describe, with an empty
// search and no window.
func (p Preferences) Criteria() lead.Criteria {
	c := lead.DefaultCriteria()
	if p.Source != "" {
		c.Source = p.Source
	}
	if p.Status != "" {
		c.Status = p.Status
	}
	if p.SortBy != "" {
		c.SortBy = p.SortBy
	}
	if p.Order != "" {
		c.Order = p.Order
	}
	return c
}

// Snapshot is the cached result of the last successful fetch.
type Snapshot struct {
	Leads     []lead.Lead
	FetchedAt time.Time
	DateRange lead.Preset
}

// JournalFilter narrows RecentTransitions.
type JournalFilter struct {
	LeadID  string
	Outcome string
	From    *time.Time
	To      *time.Time
	Limit   int
}

// OutcomeCount is the number of journal rows with one outcome.
type OutcomeCount struct {
	Outcome string
	Count   int
}
