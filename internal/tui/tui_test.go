package tui

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/leadapi"
	"github.com/sadopc/leadr/internal/leadapi/leadapitest"
	"github.com/sadopc/leadr/internal/pipeline"
	"github.com/sadopc/leadr/internal/store"
)

var testNow = time.Date(2024, 3, 14, 12, 0, 0, 0, time.Local)

func seedLeads() []lead.Lead {
	return []lead.Lead{
		{ID: "1", Name: "Alice", Phone: "555-0101", Email: "alice@example.com", Source: "website", Status: lead.StatusNew, CreatedAt: testNow.Add(-2 * time.Hour)},
		{ID: "2", Name: "Bob", Phone: "555-0102", Source: "referral", Status: lead.StatusContacted, CreatedAt: testNow.Add(-26 * time.Hour)},
		{ID: "3", Name: "Carol", Phone: "555-0103", Source: "website", Status: lead.StatusConverted, CreatedAt: testNow.Add(-72 * time.Hour)},
	}
}

type testEnv struct {
	srv *leadapitest.Server
	db  *store.Store
	ctl *pipeline.Controller
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestApp loads the fake backend synchronously and returns a sized App.
func newTestApp(t *testing.T, leads ...lead.Lead) (App, testEnv) {
	t.Helper()
	srv := leadapitest.New(t, leads...)
	api := leadapi.NewClient(srv.URL)
	db := newTestStore(t)

	ls := pipeline.NewStore(api, pipeline.WithClock(func() time.Time { return testNow }))
	if err := ls.Load(context.Background(), lead.DateRange{Preset: lead.PresetAll}); err != nil {
		t.Fatalf("load: %v", err)
	}
	ctl := pipeline.NewController(ls, api, pipeline.WithJournal(db))

	a := NewApp(Deps{
		Controller: ctl,
		DB:         db,
		ExportDir:  t.TempDir(),
		Now:        func() time.Time { return testNow },
	})
	a = update(t, a, tea.WindowSizeMsg{Width: 140, Height: 40})
	return a, testEnv{srv: srv, db: db, ctl: ctl}
}

func update(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	return m.(App)
}

func updateCmd(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and requires it to produce a message.
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

// ============================================================
// Views and keys
// ============================================================

func TestViewNamesMatchKeys(t *testing.T) {
	if len(viewNames) != len(viewKeys) {
		t.Fatalf("viewNames=%d viewKeys=%d", len(viewNames), len(viewKeys))
	}
	for i, k := range viewKeys {
		if got := parseView(k); got != viewState(i) {
			t.Errorf("parseView(%q) = %d, want %d", k, got, i)
		}
	}
	if parseView("nope") != viewBoard {
		t.Error("unknown view should fall back to board")
	}
}

func TestKeymapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help is empty")
	}
	for _, group := range keys.FullHelp() {
		for _, b := range group {
			if b.Help().Key == "" || b.Help().Desc == "" {
				t.Errorf("binding %v has no help", b.Keys())
			}
		}
	}
}

func TestTabSwitching(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	if a.activeView != viewBoard {
		t.Fatalf("default view = %d, want board", a.activeView)
	}
	a = update(t, a, runes("2"))
	if a.activeView != viewTable {
		t.Fatalf("after 2: view = %d", a.activeView)
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if a.activeView != viewStats {
		t.Fatalf("after tab: view = %d", a.activeView)
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	a = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if a.activeView != viewBoard {
		t.Fatalf("tab should wrap to board, got %d", a.activeView)
	}
}

// ============================================================
// Board
// ============================================================

func TestBoardPartitionsLeads(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)

	if len(a.board.lanes) != len(lead.Columns) {
		t.Fatalf("lanes = %d", len(a.board.lanes))
	}
	total := 0
	for _, lane := range a.board.lanes {
		total += len(lane.Leads)
	}
	if total != 3 {
		t.Fatalf("board holds %d leads, want 3", total)
	}
	if got := a.board.lanes[0].Leads; len(got) != 1 || got[0].Name != "Alice" {
		t.Fatalf("new lane = %+v", got)
	}
	if l, ok := a.board.selected(); !ok || l.ID != "1" {
		t.Fatalf("selected = %+v, %v", l, ok)
	}
}

func TestBoardNavigationAndFocus(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a = update(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if l, ok := a.board.selected(); !ok || l.Name != "Bob" {
		t.Fatalf("selected in contacted lane = %+v", l)
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if _, ok := a.board.selected(); ok {
		t.Fatal("interested lane should be empty")
	}

	a.board.setLeads(a.view, "3")
	if a.board.col != lead.ColumnIndex(lead.Columns, lead.StatusConverted) {
		t.Fatalf("focus should move cursor to converted lane, col=%d", a.board.col)
	}
}

func TestBoardView(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a = update(t, a, leadsLoadedMsg{count: 3})
	out := a.View()
	for _, want := range []string{"leadr", "New", "Contacted", "Converted", "Alice", "3 of 3 leads"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

// ============================================================
// Status transitions
// ============================================================

func TestMoveCardConfirmed(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)

	a, cmd := updateCmd(t, a, tea.KeyMsg{Type: tea.KeyShiftRight})
	req, ok := run(t, cmd).(moveRequestMsg)
	if !ok || req.id != "1" || req.to != lead.StatusContacted {
		t.Fatalf("move request = %+v", req)
	}

	a, cmd = updateCmd(t, a, req)
	if l, _ := a.leads.Get("1"); l.Status != lead.StatusContacted {
		t.Fatalf("optimistic status = %s", l.Status)
	}
	if a.board.col != 1 {
		t.Fatalf("cursor should follow the moved card, col=%d", a.board.col)
	}

	settled, ok := run(t, cmd).(transitionSettledMsg)
	if !ok || settled.outcome != pipeline.Confirmed {
		t.Fatalf("settled = %+v", settled)
	}
	a = update(t, a, settled)
	if !strings.Contains(a.status, "Moved Alice to Contacted") || a.statusErr {
		t.Fatalf("status = %q", a.status)
	}
	if n := env.srv.CallsTo(http.MethodPatch, "/api/leads/1/status"); n != 1 {
		t.Fatalf("PATCH calls = %d", n)
	}

	recent, err := env.db.RecentTransitions(store.JournalFilter{LeadID: "1"})
	if err != nil || len(recent) != 1 || recent[0].Outcome != "confirmed" {
		t.Fatalf("journal = %+v, %v", recent, err)
	}
}

func TestMoveCardRolledBack(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	env.srv.Fail(leadapitest.RouteStatus, http.StatusInternalServerError)

	a, cmd := updateCmd(t, a, moveRequestMsg{id: "1", to: lead.StatusLost})
	settled := run(t, cmd).(transitionSettledMsg)
	if settled.outcome != pipeline.RolledBack || settled.err == nil {
		t.Fatalf("settled = %+v", settled)
	}
	a = update(t, a, settled)

	if l, _ := a.leads.Get("1"); l.Status != lead.StatusNew {
		t.Fatalf("status after rollback = %s", l.Status)
	}
	if !a.statusErr || !strings.Contains(a.status, "Could not move Alice") {
		t.Fatalf("status = %q err=%v", a.status, a.statusErr)
	}
	if got := a.board.lanes[0].Leads; len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("card should be back in the new lane: %+v", got)
	}
}

func TestMoveOffBoardEdgeIsIgnored(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	_, cmd := updateCmd(t, a, tea.KeyMsg{Type: tea.KeyShiftLeft})
	if cmd != nil {
		t.Fatal("moving left from the first lane should do nothing")
	}
	if len(env.srv.Calls()) != 1 {
		t.Fatalf("unexpected calls: %+v", env.srv.Calls())
	}
}

func TestMoveToSameStatusSendsNothing(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	_, cmd := updateCmd(t, a, moveRequestMsg{id: "2", to: lead.StatusContacted})
	if cmd != nil {
		t.Fatal("same-status move should not commit")
	}
	if n := env.srv.CallsTo(http.MethodPatch, "/api/leads/2/status"); n != 0 {
		t.Fatalf("PATCH calls = %d", n)
	}
}

func TestDetailsRefreshLead(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	other := leadapi.NewClient(env.srv.URL)
	if _, err := other.UpdateStatus(context.Background(), "1", lead.StatusInterested); err != nil {
		t.Fatalf("update elsewhere: %v", err)
	}

	a, cmd := updateCmd(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if !a.board.showDetails {
		t.Fatal("enter should open details")
	}
	req, ok := run(t, cmd).(refreshRequestMsg)
	if !ok || req.id != "1" {
		t.Fatalf("refresh request = %+v", req)
	}
	a, cmd = updateCmd(t, a, req)
	a = update(t, a, run(t, cmd))

	if l, _ := a.leads.Get("1"); l.Status != lead.StatusInterested {
		t.Fatalf("refreshed status = %s", l.Status)
	}
	if n := env.srv.CallsTo(http.MethodGet, "/api/leads/1"); n != 1 {
		t.Fatalf("GET calls = %d", n)
	}
	if l, ok := a.board.selected(); !ok || l.ID != "1" {
		t.Fatalf("cursor should stay on the refreshed lead, got %+v", l)
	}

	// Closing details does not fetch again.
	_, cmd = updateCmd(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("closing details should not refresh")
	}
}

func TestDetailsRefreshFailure(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	env.srv.Fail(leadapitest.RouteGet, http.StatusInternalServerError)

	a, cmd := updateCmd(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	a, cmd = updateCmd(t, a, run(t, cmd))
	a = update(t, a, run(t, cmd))
	if !a.statusErr || !strings.Contains(a.status, "Could not refresh") {
		t.Fatalf("status = %q", a.status)
	}
	if l, _ := a.leads.Get("1"); l.Status != lead.StatusNew {
		t.Fatalf("status after failed refresh = %s", l.Status)
	}
}

func TestStatusKeyOpensDialog(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a = update(t, a, runes("m"))
	if !a.dialog.active() || a.dialog.kind != dialogStatus {
		t.Fatal("status picker should be open")
	}
	if a.dialog.target.ID != "1" {
		t.Fatalf("dialog target = %s", a.dialog.target.ID)
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.dialog.active() {
		t.Fatal("esc should close the dialog")
	}
}

// ============================================================
// Delete and create
// ============================================================

func TestDeleteFlow(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)

	a, cmd := updateCmd(t, a, deleteRequestMsg{id: "2"})
	done := run(t, cmd).(leadDeletedMsg)
	if done.err != nil {
		t.Fatal(done.err)
	}
	a = update(t, a, done)

	if _, ok := a.leads.Get("2"); ok {
		t.Fatal("lead 2 should be gone")
	}
	if len(a.view) != 2 || a.status != "Deleted Bob" {
		t.Fatalf("view=%d status=%q", len(a.view), a.status)
	}
	if len(env.srv.Leads()) != 2 {
		t.Fatal("backend should have deleted the lead")
	}
}

func TestDeleteFailureKeepsLead(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	env.srv.Fail(leadapitest.RouteDelete, http.StatusInternalServerError)

	a, cmd := updateCmd(t, a, deleteRequestMsg{id: "2"})
	a = update(t, a, run(t, cmd))
	if _, ok := a.leads.Get("2"); !ok {
		t.Fatal("failed delete should keep the lead")
	}
	if !a.statusErr {
		t.Fatalf("status = %q", a.status)
	}
}

func TestCreateFlow(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)

	a, cmd := updateCmd(t, a, createRequestMsg{lead: lead.NewLead{Name: "Dana", Phone: "555-0104", Source: "walk-in"}})
	created := run(t, cmd).(leadCreatedMsg)
	if created.err != nil {
		t.Fatal(created.err)
	}
	a = update(t, a, created)

	if a.leads.Len() != 4 {
		t.Fatalf("store len = %d", a.leads.Len())
	}
	if l, ok := a.board.selected(); !ok || l.Name != "Dana" {
		t.Fatalf("cursor should land on the new lead, got %+v", l)
	}
}

func TestCreateValidationError(t *testing.T) {
	a, _ := newTestApp(t)
	a, cmd := updateCmd(t, a, createRequestMsg{lead: lead.NewLead{Name: "No Phone"}})
	a = update(t, a, run(t, cmd))
	if !a.statusErr || !strings.Contains(a.status, "Could not create lead") {
		t.Fatalf("status = %q", a.status)
	}
}

// ============================================================
// Search and sort
// ============================================================

func TestSearchFiltersView(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)

	a = update(t, a, runes("/"))
	if !a.searching {
		t.Fatal("/ should start searching")
	}
	for _, r := range "bob" {
		a = update(t, a, runes(string(r)))
	}
	if len(a.view) != 1 || a.view[0].Name != "Bob" {
		t.Fatalf("view = %+v", a.view)
	}

	// Keys are typed into the box while searching.
	a = update(t, a, runes("q"))
	if a.criteria.Search != "bobq" {
		t.Fatalf("search = %q", a.criteria.Search)
	}

	a = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.searching || a.criteria.Search != "" || len(a.view) != 3 {
		t.Fatalf("esc should clear search: searching=%v term=%q view=%d", a.searching, a.criteria.Search, len(a.view))
	}
}

func TestSearchMatchesPhone(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a = update(t, a, runes("/"))
	a = update(t, a, runes("0103"))
	a = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.searching {
		t.Fatal("enter should leave the search box")
	}
	if len(a.view) != 1 || a.view[0].Name != "Carol" {
		t.Fatalf("view = %+v", a.view)
	}
}

func TestTableSortToggle(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	a = update(t, a, runes("2"))

	a, cmd := updateCmd(t, a, runes("N"))
	req, ok := run(t, cmd).(sortRequestMsg)
	if !ok || req.key != lead.SortByName {
		t.Fatalf("sort request = %+v", req)
	}
	a, cmd = updateCmd(t, a, req)
	if a.criteria.SortBy != lead.SortByName || a.criteria.Order != lead.Asc {
		t.Fatalf("criteria = %+v", a.criteria)
	}
	if a.view[0].Name != "Alice" || a.view[2].Name != "Carol" {
		t.Fatalf("name asc order = %s..%s", a.view[0].Name, a.view[2].Name)
	}
	if cmd != nil {
		cmd()
	}
	prefs, err := env.db.LoadPreferences()
	if err != nil || prefs.SortBy != lead.SortByName || prefs.Order != lead.Asc {
		t.Fatalf("persisted prefs = %+v, %v", prefs, err)
	}

	a = update(t, a, sortRequestMsg{key: lead.SortByName})
	if a.criteria.Order != lead.Desc || a.view[0].Name != "Carol" {
		t.Fatalf("second toggle should flip order: %+v first=%s", a.criteria, a.view[0].Name)
	}
	if !strings.Contains(a.View(), "▼") {
		t.Error("table header should show descending indicator")
	}
}

// ============================================================
// Loading and status
// ============================================================

func TestLoadingIndicator(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	if !a.loading || !strings.Contains(a.View(), "loading...") {
		t.Fatal("app should start loading")
	}
	a = update(t, a, leadsLoadedMsg{count: 3})
	if a.loading || a.status != "Loaded 3 leads" {
		t.Fatalf("loading=%v status=%q", a.loading, a.status)
	}
}

func TestLoadFailureKeepsLeads(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a = update(t, a, leadsLoadedMsg{err: errors.New("connection refused")})
	if !a.statusErr || !strings.Contains(a.status, "connection refused") {
		t.Fatalf("status = %q", a.status)
	}
	if len(a.view) != 3 {
		t.Fatalf("view = %d", len(a.view))
	}
}

func TestLoadCmdSavesSnapshot(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	msg := run(t, a.loadCmd()).(leadsLoadedMsg)
	if msg.err != nil || msg.count != 3 {
		t.Fatalf("loaded = %+v", msg)
	}
	snap, err := env.db.LoadSnapshot()
	if err != nil || len(snap.Leads) != 3 {
		t.Fatalf("snapshot = %+v, %v", snap, err)
	}
}

func TestCachedIndicator(t *testing.T) {
	a, _ := newTestApp(t)
	a.leads.Replace(seedLeads())
	a.cachedAt = testNow.Add(-10 * time.Minute)
	a.rebuild("")

	if !strings.Contains(a.View(), "cached 10m ago") {
		t.Fatal("footer should show the cache age")
	}
	a = update(t, a, leadsLoadedMsg{count: 0})
	if !a.cachedAt.IsZero() {
		t.Fatal("successful load should clear cache age")
	}
}

func TestRefreshKey(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a = update(t, a, leadsLoadedMsg{count: 3})

	a, cmd := updateCmd(t, a, runes("r"))
	if !a.loading || cmd == nil {
		t.Fatal("r should start a reload")
	}
	if _, cmd = updateCmd(t, a, runes("r")); cmd != nil {
		t.Fatal("r while loading should be ignored")
	}
}

// ============================================================
// Export
// ============================================================

func TestExportCurrentView(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a.criteria.Source = "website"
	a.rebuild("")

	a = update(t, a, runes("e"))
	if !a.exportPicking {
		t.Fatal("e should open the export picker")
	}
	a, cmd := updateCmd(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	done, ok := run(t, cmd).(exportDoneMsg)
	if !ok {
		t.Fatal("expected exportDoneMsg")
	}
	if done.count != 2 || !strings.HasSuffix(done.path, ".csv") {
		t.Fatalf("export = %+v", done)
	}
	data, err := os.ReadFile(done.path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Fatalf("csv has %d newlines, want 2", n)
	}

	a = update(t, a, done)
	if !strings.Contains(a.status, "Exported 2 leads") {
		t.Fatalf("status = %q", a.status)
	}
}

func TestExportJSON(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a = update(t, a, runes("e"))
	a = update(t, a, tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := updateCmd(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	done := run(t, cmd).(exportDoneMsg)
	if !strings.HasSuffix(done.path, ".json") || done.count != 3 {
		t.Fatalf("export = %+v", done)
	}
}

// ============================================================
// Stats and settings
// ============================================================

func TestStatsView(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a = update(t, a, runes("3"))

	if a.stats.snap.Total != 3 || a.stats.snap.Converted != 1 {
		t.Fatalf("snapshot = %+v", a.stats.snap)
	}
	out := a.View()
	for _, want := range []string{"Total", "Conversion", "33.3%", "By source", "No status changes recorded yet"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats view missing %q", want)
		}
	}
}

func TestStatsIgnoresFilters(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a.criteria.Search = "alice"
	a.rebuild("")
	if len(a.view) != 1 || a.stats.snap.Total != 3 {
		t.Fatalf("view=%d total=%d", len(a.view), a.stats.snap.Total)
	}
}

func TestStatsJournalRefresh(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	if _, err := env.ctl.Move(context.Background(), "1", lead.StatusContacted); err != nil {
		t.Fatal(err)
	}
	a = update(t, a, run(t, a.stats.refresh()))
	if len(a.stats.recent) != 1 || a.stats.recent[0].LeadName != "Alice" {
		t.Fatalf("recent = %+v", a.stats.recent)
	}
}

func TestPreferencesChanged(t *testing.T) {
	a, env := newTestApp(t, seedLeads()...)
	a = update(t, a, leadsLoadedMsg{count: 3})

	prefs := a.prefs
	prefs.Status = string(lead.StatusContacted)
	a, cmd := updateCmd(t, a, preferencesChangedMsg{prefs: prefs})
	if len(a.view) != 1 || a.view[0].Name != "Bob" {
		t.Fatalf("status filter not applied: %+v", a.view)
	}
	if a.loading {
		t.Fatal("unchanged date range should not reload")
	}
	if cmd == nil {
		t.Fatal("expected save command")
	}

	prefs.DateRange = lead.DateRange{Preset: lead.PresetToday}
	a = update(t, a, preferencesChangedMsg{prefs: prefs})
	if !a.loading {
		t.Fatal("date range change should reload")
	}
	if len(a.view) != 0 {
		t.Fatalf("bob is not from today, view=%+v", a.view)
	}

	if err := env.db.SavePreferences(prefs); err != nil {
		t.Fatal(err)
	}
	got, _ := env.db.LoadPreferences()
	if got.Status != string(lead.StatusContacted) || got.DateRange.Preset != lead.PresetToday {
		t.Fatalf("prefs = %+v", got)
	}
}

func TestSettingsView(t *testing.T) {
	a, _ := newTestApp(t, seedLeads()...)
	a = update(t, a, runes("4"))
	out := a.View()
	for _, want := range []string{"Settings", "All sources", "All time", "Press enter"} {
		if !strings.Contains(out, want) {
			t.Errorf("settings view missing %q", want)
		}
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if !a.settings.formActive {
		t.Fatal("enter should open the settings form")
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.settings.formActive {
		t.Fatal("esc should close the settings form")
	}
}

func TestSettingsCollectCustomRange(t *testing.T) {
	s := newSettingsModel()
	*s.source, *s.status = lead.All, lead.All
	*s.sortBy, *s.order = string(lead.SortByName), string(lead.Asc)
	*s.preset = string(lead.PresetCustom)
	*s.from, *s.to = "2024-01-01", "2024-01-31"
	*s.defaultView = "table"

	p, err := s.collect()
	if err != nil {
		t.Fatal(err)
	}
	if p.DateRange.From.Day() != 1 || p.DateRange.To.Day() != 31 || p.DefaultView != "table" {
		t.Fatalf("prefs = %+v", p)
	}

	*s.to = "2023-12-01"
	if err := s.validateTo(*s.to); err == nil {
		t.Fatal("end before start should fail validation")
	}
	if err := validateDate("01/02/2024"); err == nil {
		t.Fatal("wrong layout should fail validation")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatAgo(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		if got := formatAgo(testNow.Add(-tt.d), testNow); got != tt.want {
			t.Errorf("formatAgo(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
	if formatAgo(time.Time{}, testNow) != "never" {
		t.Error("zero time should be never")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 6); got != "hello…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("hi", 6); got != "hi" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("hi", 0); got != "" {
		t.Errorf("truncate zero = %q", got)
	}
}
