// Package leadapitest runs an in-memory lead backend for tests.
package leadapitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sadopc/leadr/internal/lead"
)

// Call records one request the fake received.
type Call struct {
	Method string
	Path   string
	Query  string
	Body   string
	Cookie string
}

// Server is a fake lead backend speaking the {success, data} envelope.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	leads  []lead.Lead
	calls  []Call
	fail   map[Route]int
	nextID int
	hold   chan struct{}
	// PageSize caps list responses when the client sends no limit.
	PageSize int
}

// New starts a fake backend seeded with leads and registers cleanup on t.
func New(t testing.TB, leads ...lead.Lead) *Server {
	t.Helper()
	s := &Server{
		leads:    slices.Clone(leads),
		fail:     make(map[Route]int),
		nextID:   1000,
		PageSize: 100,
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api/leads", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}", s.get)
		r.Patch("/{id}/status", s.updateStatus)
		r.Delete("/{id}", s.remove)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Route names one endpoint of the fake.
type Route string

const (
	RouteList   Route = "list"
	RouteGet    Route = "get"
	RouteCreate Route = "create"
	RouteStatus Route = "status"
	RouteDelete Route = "delete"
)

// Fail makes every request to route answer with status until Clear is called.
func (s *Server) Fail(route Route, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[route] = status
}

// HoldStatus blocks status PATCH handlers until the returned func is called.
func (s *Server) HoldStatus() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (s *Server) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = make(map[Route]int)
}

// Calls returns a copy of the recorded requests.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallsTo counts requests with the given method whose path matches path.
func (s *Server) CallsTo(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// Leads returns the backend's current records.
func (s *Server) Leads() []lead.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.leads)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(body),
			Cookie: r.Header.Get("Cookie"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failing(w http.ResponseWriter, route Route) bool {
	s.mu.Lock()
	status, ok := s.fail[route]
	s.mu.Unlock()
	if !ok {
		return false
	}
	writeJSON(w, status, map[string]any{"success": false, "error": http.StatusText(status)})
	return true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if s.failing(w, RouteList) {
		return
	}
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), s.PageSize)
	start := parseQueryTime(q.Get("startDate"))
	end := parseQueryTime(q.Get("endDate"))

	s.mu.Lock()
	var matched []lead.Lead
	for _, l := range s.leads {
		if !start.IsZero() && l.CreatedAt.Before(start) {
			continue
		}
		if !end.IsZero() && l.CreatedAt.After(end) {
			continue
		}
		matched = append(matched, l)
	}
	s.mu.Unlock()

	total := len(matched)
	from := min((page-1)*limit, total)
	to := min(from+limit, total)
	totalPages := (total + limit - 1) / limit

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    nonNil(matched[from:to]),
		"pagination": map[string]int{
			"page": page, "limit": limit, "total": total, "totalPages": totalPages,
		},
	})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	if s.failing(w, RouteGet) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Lead not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": s.leads[i]})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	if s.failing(w, RouteCreate) {
		return
	}
	var in lead.NewLead
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Validate() != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid lead"})
		return
	}
	s.mu.Lock()
	s.nextID++
	now := time.Now()
	l := lead.Lead{
		ID:        "ld_" + strconv.Itoa(s.nextID),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Location:  in.Location,
		Source:    in.Source,
		Interest:  in.Interest,
		Status:    lead.StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.leads = append(s.leads, l)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": l})
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	hold := s.hold
	s.mu.Unlock()
	if hold != nil {
		<-hold
	}
	if s.failing(w, RouteStatus) {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid body"})
		return
	}
	st, err := lead.ParseStatus(body.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Lead not found"})
		return
	}
	s.leads[i].Status = st
	s.leads[i].UpdatedAt = time.Now()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": s.leads[i]})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	if s.failing(w, RouteDelete) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Lead not found"})
		return
	}
	s.leads = slices.Delete(s.leads, i, i+1)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Lead deleted"})
}

// indexOf must be called with mu held.
func (s *Server) indexOf(id string) int {
	return slices.IndexFunc(s.leads, func(l lead.Lead) bool { return l.ID == id })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseQueryTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(leads []lead.Lead) []lead.Lead {
	if leads == nil {
		return []lead.Lead{}
	}
	return leads
}
