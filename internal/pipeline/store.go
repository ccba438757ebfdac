// Package pipeline holds the in-memory lead collection and reconciles
// optimistic status changes with the backend.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/leadapi"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
	// ErrNoop is returned by Begin when the lead already has the target status.
	ErrNoop = errors.New("lead already has that status")
)

// DefaultPageLimit is the page size requested while loading.
const DefaultPageLimit = 100

// Lister fetches one page of leads.
type Lister interface {
	ListLeads(ctx context.Context, opts leadapi.ListOptions) (*leadapi.ListResult, error)
}

// Store is the client-side lead collection. It is safe for concurrent use.
type Store struct {
	api       Lister
	now       func() time.Time
	pageLimit int

	mu       sync.RWMutex
	leads    []lead.Lead
	window   lead.Window
	cached   bool
	loadedAt time.Time

	// generation bumps on every wholesale replacement so transitions begun
	// against an older collection settle as superseded.
	generation uint64
	seq        uint64
	latest     map[string]uint64
	pending    map[string]int
	failedLast map[string]bool
	confirmed  map[string]confirmedStatus
}

type confirmedStatus struct {
	status lead.Status
	seq    uint64
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithPageLimit(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.pageLimit = n
		}
	}
}

func NewStore(api Lister, opts ...StoreOption) *Store {
	s := &Store{
		api:       api,
		now:       time.Now,
		pageLimit: DefaultPageLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset(nil)
	return s
}

// Load fetches every page for the range and replaces the collection. On error
// the previous collection is left untouched.
func (s *Store) Load(ctx context.Context, r lead.DateRange) error {
	w, err := r.Resolve(s.now())
	if err != nil {
		return err
	}

	var all []lead.Lead
	for page := 1; ; page++ {
		res, err := s.api.ListLeads(ctx, leadapi.ListOptions{
			Page:      page,
			Limit:     s.pageLimit,
			StartDate: w.Start,
			EndDate:   w.End,
		})
		if err != nil {
			return fmt.Errorf("loading leads page %d: %w", page, err)
		}
		all = append(all, res.Leads...)
		p := res.Pagination
		if p == nil || len(res.Leads) == 0 || page >= p.TotalPages {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(dedupe(all))
	s.window = w
	s.cached = false
	s.loadedAt = s.now()
	return nil
}

// Replace seeds the collection without a fetch, e.g. from the local cache.
// The store reports Cached until the next successful Load.
func (s *Store) Replace(leads []lead.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(dedupe(leads))
	s.cached = true
}

// reset must be called with mu held (or before the store is shared).
func (s *Store) reset(leads []lead.Lead) {
	s.generation++
	s.leads = leads
	s.latest = make(map[string]uint64)
	s.pending = make(map[string]int)
	s.failedLast = make(map[string]bool)
	s.confirmed = make(map[string]confirmedStatus, len(leads))
	for _, l := range leads {
		s.confirmed[l.ID] = confirmedStatus{status: l.Status}
	}
}

func dedupe(leads []lead.Lead) []lead.Lead {
	seen := make(map[string]bool, len(leads))
	out := make([]lead.Lead, 0, len(leads))
	for _, l := range leads {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}

// Leads returns a copy of the collection in fetch order.
func (s *Store) Leads() []lead.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.leads)
}

func (s *Store) Get(id string) (lead.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.leads[i], true
	}
	return lead.Lead{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

// Sources lists the distinct non-empty source tags, sorted.
func (s *Store) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, l := range s.leads {
		if l.Source == "" || seen[l.Source] {
			continue
		}
		seen[l.Source] = true
		out = append(out, l.Source)
	}
	slices.Sort(out)
	return out
}

func (s *Store) Window() lead.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// Cached reports whether the collection came from Replace rather than a fetch.
func (s *Store) Cached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached
}

func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// ApplyStatusLocally sets a lead's status without touching the backend.
// Begin makes its optimistic change through the same setStatus path.
func (s *Store) ApplyStatusLocally(id string, status lead.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatus(id, status)
}

// setStatus must be called with mu held.
func (s *Store) setStatus(id string, status lead.Status) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.leads[i].Status = status
	return true
}

func (s *Store) RemoveByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.leads = slices.Delete(s.leads, i, i+1)
	delete(s.latest, id)
	delete(s.pending, id)
	delete(s.failedLast, id)
	delete(s.confirmed, id)
	return true
}

// Upsert replaces the lead with the same id or prepends a new one.
func (s *Store) Upsert(l lead.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(l.ID); i >= 0 {
		s.leads[i] = l
	} else {
		s.leads = slices.Insert(s.leads, 0, l)
	}
	s.confirmed[l.ID] = confirmedStatus{status: l.Status, seq: s.latest[l.ID]}
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.leads, func(l lead.Lead) bool { return l.ID == id })
}

// begin applies an optimistic status change and issues its sequence token.
func (s *Store) begin(id string, to lead.Status) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Transition{}, ErrLeadNotFound
	}
	from := s.leads[i].Status
	if from == to {
		return Transition{}, ErrNoop
	}
	s.seq++
	s.latest[id] = s.seq
	s.pending[id]++
	s.failedLast[id] = false
	s.setStatus(id, to)
	return Transition{
		LeadID:     id,
		From:       from,
		To:         to,
		Seq:        s.seq,
		Generation: s.generation,
	}, nil
}

// settle folds the backend's answer for t into the collection.
func (s *Store) settle(t Transition, server *lead.Lead, callErr error) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Generation != s.generation {
		return s.settleAfterReload(t, server, callErr)
	}
	i := s.indexOf(t.LeadID)
	if i < 0 {
		return Superseded
	}
	if s.pending[t.LeadID] > 0 {
		s.pending[t.LeadID]--
	}
	newest := s.latest[t.LeadID] == t.Seq

	if callErr != nil {
		if !newest {
			return Superseded
		}
		s.setStatus(t.LeadID, s.confirmed[t.LeadID].status)
		s.failedLast[t.LeadID] = true
		return RolledBack
	}

	confirmedTo := t.To
	if server != nil && server.Status != "" {
		confirmedTo = server.Status
	}
	if c := s.confirmed[t.LeadID]; t.Seq > c.seq {
		s.confirmed[t.LeadID] = confirmedStatus{status: confirmedTo, seq: t.Seq}
	}

	if !newest {
		// The newest change already failed and rolled back to a baseline this
		// response has now moved; show what the backend holds.
		if s.failedLast[t.LeadID] && s.pending[t.LeadID] == 0 {
			s.leads[i].Status = s.confirmed[t.LeadID].status
		}
		return Superseded
	}

	if server != nil && server.ID == t.LeadID {
		s.leads[i] = *server
	} else {
		s.leads[i].Status = confirmedTo
	}
	return Confirmed
}

// settleAfterReload handles a transition begun before the collection was
// replaced. A success is folded in when the lead survived the reload and no
// change was begun on it since; everything else is dropped. Must be called
// with mu held.
func (s *Store) settleAfterReload(t Transition, server *lead.Lead, callErr error) Outcome {
	if callErr != nil {
		return Superseded
	}
	i := s.indexOf(t.LeadID)
	if i < 0 || s.pending[t.LeadID] > 0 || s.latest[t.LeadID] > t.Seq {
		return Superseded
	}
	if server != nil && server.ID == t.LeadID {
		s.leads[i] = *server
	} else {
		s.leads[i].Status = t.To
	}
	s.confirmed[t.LeadID] = confirmedStatus{status: s.leads[i].Status, seq: t.Seq}
	return Confirmed
}

// refresh replaces the record with a fresh backend copy unless a status
// change for it is still in flight.
func (s *Store) refresh(l lead.Lead) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(l.ID)
	if i < 0 || s.pending[l.ID] > 0 {
		return false
	}
	s.leads[i] = l
	s.confirmed[l.ID] = confirmedStatus{status: l.Status, seq: s.latest[l.ID]}
	return true
}
