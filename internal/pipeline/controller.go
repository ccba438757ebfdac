package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/leadr/internal/lead"
)

// Mutator is the per-lead side of the lead API.
type Mutator interface {
	GetLead(ctx context.Context, id string) (*lead.Lead, error)
	UpdateStatus(ctx context.Context, id string, status lead.Status) (*lead.Lead, error)
	DeleteLead(ctx context.Context, id string) error
	CreateLead(ctx context.Context, in lead.NewLead) (*lead.Lead, error)
}

type Outcome int

const (
	Confirmed Outcome = iota
	Superseded
	RolledBack
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Superseded:
		return "superseded"
	case RolledBack:
		return "rolled_back"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Transition is one optimistic status change awaiting the backend.
type Transition struct {
	ID         string
	LeadID     string
	From       lead.Status
	To         lead.Status
	Seq        uint64
	Generation uint64
	StartedAt  time.Time
}

// JournalEntry is a settled transition as written to the journal.
type JournalEntry struct {
	TransitionID string
	LeadID       string
	LeadName     string
	From         lead.Status
	To           lead.Status
	Outcome      string
	Error        string
	StartedAt    time.Time
	SettledAt    time.Time
}

// Journal persists settled transitions.
type Journal interface {
	RecordTransition(ctx context.Context, e JournalEntry) error
}

// Controller moves and deletes leads, keeping the Store consistent with the
// backend.
type Controller struct {
	store   *Store
	api     Mutator
	journal Journal
	log     *slog.Logger
	now     func() time.Time
}

type ControllerOption func(*Controller)

func WithJournal(j Journal) ControllerOption {
	return func(c *Controller) { c.journal = j }
}

func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func NewController(store *Store, api Mutator, opts ...ControllerOption) *Controller {
	c := &Controller{
		store: store,
		api:   api,
		log:   slog.New(slog.DiscardHandler),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Store() *Store { return c.store }

// Begin applies the status change locally. It returns ErrNoop when the lead
// already has status to, and no request must be sent in that case.
func (c *Controller) Begin(id string, to lead.Status) (*Transition, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %q", lead.ErrInvalidStatus, to)
	}
	t, err := c.store.begin(id, to)
	if err != nil {
		return nil, err
	}
	t.ID = uuid.NewString()
	t.StartedAt = c.now()
	c.log.Debug("transition begun", "transition", t.ID, "lead", id, "from", t.From, "to", t.To, "seq", t.Seq)
	return &t, nil
}

// Commit sends exactly one status PATCH for t and settles the result. The
// call error is returned alongside RolledBack and Superseded outcomes.
func (c *Controller) Commit(ctx context.Context, t *Transition) (Outcome, error) {
	server, callErr := c.api.UpdateStatus(ctx, t.LeadID, t.To)
	outcome := c.store.settle(*t, server, callErr)

	attrs := []any{"transition", t.ID, "lead", t.LeadID, "from", t.From, "to", t.To, "outcome", outcome.String()}
	if callErr != nil {
		c.log.Warn("status update failed", append(attrs, "err", callErr)...)
	} else {
		c.log.Info("status update settled", attrs...)
	}
	c.record(ctx, *t, outcome, callErr)

	if callErr != nil {
		return outcome, fmt.Errorf("updating lead %s to %s: %w", t.LeadID, t.To, callErr)
	}
	return outcome, nil
}

// Move is Begin followed by Commit.
func (c *Controller) Move(ctx context.Context, id string, to lead.Status) (Outcome, error) {
	t, err := c.Begin(id, to)
	if err != nil {
		return Superseded, err
	}
	return c.Commit(ctx, t)
}

// Delete removes the lead from the backend and, only when that succeeds,
// from the store.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if _, ok := c.store.Get(id); !ok {
		return ErrLeadNotFound
	}
	if err := c.api.DeleteLead(ctx, id); err != nil {
		c.log.Warn("delete failed", "lead", id, "err", err)
		return fmt.Errorf("deleting lead %s: %w", id, err)
	}
	c.store.RemoveByID(id)
	c.log.Info("lead deleted", "lead", id)
	return nil
}

// Create posts a new lead and adds the backend's copy to the store.
func (c *Controller) Create(ctx context.Context, in lead.NewLead) (lead.Lead, error) {
	if err := in.Validate(); err != nil {
		return lead.Lead{}, err
	}
	created, err := c.api.CreateLead(ctx, in)
	if err != nil {
		return lead.Lead{}, fmt.Errorf("creating lead: %w", err)
	}
	if created == nil || created.ID == "" {
		return lead.Lead{}, fmt.Errorf("creating lead: backend returned no id")
	}
	if created.Status == "" {
		created.Status = lead.StatusNew
	}
	c.store.Upsert(*created)
	c.log.Info("lead created", "lead", created.ID, "source", created.Source)
	return *created, nil
}

// Refresh re-reads one lead from the backend. While a status change for the
// lead is in flight the local record is kept and returned instead.
func (c *Controller) Refresh(ctx context.Context, id string) (lead.Lead, error) {
	if _, ok := c.store.Get(id); !ok {
		return lead.Lead{}, ErrLeadNotFound
	}
	fresh, err := c.api.GetLead(ctx, id)
	if err != nil {
		return lead.Lead{}, fmt.Errorf("refreshing lead %s: %w", id, err)
	}
	if fresh == nil || fresh.ID != id {
		return lead.Lead{}, fmt.Errorf("refreshing lead %s: backend returned another record", id)
	}
	if !c.store.refresh(*fresh) {
		local, _ := c.store.Get(id)
		return local, nil
	}
	c.log.Debug("lead refreshed", "lead", id, "status", fresh.Status)
	return *fresh, nil
}

func (c *Controller) record(ctx context.Context, t Transition, o Outcome, callErr error) {
	if c.journal == nil {
		return
	}
	e := JournalEntry{
		TransitionID: t.ID,
		LeadID:       t.LeadID,
		From:         t.From,
		To:           t.To,
		Outcome:      o.String(),
		StartedAt:    t.StartedAt,
		SettledAt:    c.now(),
	}
	if l, ok := c.store.Get(t.LeadID); ok {
		e.LeadName = l.Name
	}
	if callErr != nil {
		e.Error = callErr.Error()
	}
	if err := c.journal.RecordTransition(context.WithoutCancel(ctx), e); err != nil {
		c.log.Error("journal write failed", "transition", t.ID, "err", err)
	}
}
