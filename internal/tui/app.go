package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/pipeline"
	"github.com/sadopc/leadr/internal/store"
)

// Deps are the collaborators the App drives.
type Deps struct {
	Controller *pipeline.Controller
	// DB persists preferences, the lead cache and the journal. It may be nil.
	DB        *store.Store
	Logger    *slog.Logger
	ExportDir string
	// CachedAt is when the seeded collection was fetched, if it came from
	// the local cache.
	CachedAt time.Time
	Now      func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	ctrl      *pipeline.Controller
	leads     *pipeline.Store
	db        *store.Store
	log       *slog.Logger
	exportDir string
	cachedAt  time.Time
	now       func() time.Time

	width  int
	height int

	activeView viewState
	showHelp   bool
	loading    bool

	prefs    store.Preferences
	criteria lead.Criteria
	view     []lead.Lead

	search    textinput.Model
	searching bool

	exportPicking bool
	exportCursor  int

	board    boardModel
	table    tableModel
	stats    statsModel
	settings settingsModel
	dialog   dialogModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(d Deps) App {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ExportDir == "" {
		d.ExportDir = "."
	}

	prefs := store.Preferences{
		Source:      lead.All,
		Status:      lead.All,
		SortBy:      lead.SortByCreatedAt,
		Order:       lead.Desc,
		DateRange:   lead.DateRange{Preset: lead.PresetAll},
		DefaultView: viewKeys[viewBoard],
	}
	if d.DB != nil {
		if p, err := d.DB.LoadPreferences(); err != nil {
			d.Logger.Warn("loading preferences", "err", err)
		} else {
			prefs = p
		}
	}

	h := help.New()
	h.ShowAll = false

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "name, phone or email"
	search.CharLimit = 120

	a := App{
		ctrl:       d.Controller,
		leads:      d.Controller.Store(),
		db:         d.DB,
		log:        d.Logger,
		exportDir:  d.ExportDir,
		cachedAt:   d.CachedAt,
		now:        d.Now,
		activeView: parseView(prefs.DefaultView),
		loading:    true,
		prefs:      prefs,
		criteria:   prefs.Criteria(),
		search:     search,
		board:      newBoardModel(),
		table:      newTableModel(),
		stats:      newStatsModel(d.DB),
		settings:   newSettingsModel(),
		dialog:     newDialogModel(),
		help:       h,
	}
	a.table.setSort(a.criteria.SortBy, a.criteria.Order)
	a.rebuild("")
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.loadCmd(),
		a.stats.refresh(),
		tickCmd(),
	)
}

func (a App) loadCmd() tea.Cmd {
	return loadLeadsCmd(a.leads, a.db, a.log, a.prefs.DateRange)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.board.setSize(a.width, contentHeight)
		a.table.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.dialog.setWidth(a.width)
		a.search.Width = max(10, a.width/3)
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case tickMsg:
		a.rebuild("")
		return a, tickCmd()

	case leadsLoadedMsg:
		a.loading = false
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Failed to load leads: %v", msg.err), true)
			return a, nil
		}
		a.cachedAt = time.Time{}
		a.setStatus(fmt.Sprintf("Loaded %d leads", msg.count), false)
		a.rebuild("")
		return a, a.stats.refresh()

	case moveRequestMsg:
		t, err := a.ctrl.Begin(msg.id, msg.to)
		if errors.Is(err, pipeline.ErrNoop) {
			return a, nil
		}
		if err != nil {
			a.setStatus(fmt.Sprintf("Cannot move lead: %v", err), true)
			return a, nil
		}
		a.rebuild(msg.id)
		return a, commitCmd(a.ctrl, t)

	case transitionSettledMsg:
		name := msg.transition.LeadID
		if l, ok := a.leads.Get(msg.transition.LeadID); ok {
			name = l.Name
		}
		switch msg.outcome {
		case pipeline.Confirmed:
			a.setStatus(fmt.Sprintf("Moved %s to %s", name, msg.transition.To.Label()), false)
		case pipeline.RolledBack:
			a.setStatus(fmt.Sprintf("Could not move %s: %v", name, msg.err), true)
		}
		a.rebuild("")
		return a, a.stats.refresh()

	case deleteRequestMsg:
		l, ok := a.leads.Get(msg.id)
		if !ok {
			return a, nil
		}
		a.setStatus("Deleting "+l.Name+"...", false)
		return a, deleteCmd(a.ctrl, l)

	case leadDeletedMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Could not delete %s: %v", msg.name, msg.err), true)
			return a, nil
		}
		a.setStatus("Deleted "+msg.name, false)
		a.rebuild("")
		return a, nil

	case createRequestMsg:
		a.setStatus("Creating "+msg.lead.Name+"...", false)
		return a, createCmd(a.ctrl, msg.lead)

	case leadCreatedMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Could not create lead: %v", msg.err), true)
			return a, nil
		}
		a.setStatus("Created "+msg.lead.Name, false)
		a.rebuild(msg.lead.ID)
		return a, nil

	case refreshRequestMsg:
		return a, refreshCmd(a.ctrl, msg.id)

	case leadRefreshedMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Could not refresh lead: %v", msg.err), true)
			return a, nil
		}
		a.rebuild(msg.lead.ID)
		return a, nil

	case sortRequestMsg:
		a.criteria = a.criteria.ToggleSort(msg.key)
		a.prefs.SortBy, a.prefs.Order = a.criteria.SortBy, a.criteria.Order
		a.table.setSort(a.criteria.SortBy, a.criteria.Order)
		a.rebuild("")
		return a, savePrefsCmd(a.db, a.prefs)

	case preferencesChangedMsg:
		return a.applyPreferences(msg.prefs)

	case statsJournalMsg:
		a.stats, _ = a.stats.update(msg)
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus(fmt.Sprintf("Exported %d leads to %s", msg.count, msg.path), false)
		return a, nil
	}

	// Anything else (cursor blinks, form internals) goes to whatever is
	// capturing input.
	switch {
	case a.dialog.active():
		var cmd tea.Cmd
		a.dialog, cmd = a.dialog.update(msg)
		return a, cmd
	case a.settings.formActive:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	case a.searching:
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.exportPicking {
		return a.updateExportPicker(msg)
	}
	if a.dialog.active() {
		var cmd tea.Cmd
		a.dialog, cmd = a.dialog.update(msg)
		return a, cmd
	}
	if a.activeView == viewSettings && a.settings.formActive {
		return a.updateActiveView(msg)
	}
	if a.searching {
		return a.updateSearch(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Help):
		a.showHelp = !a.showHelp
		a.help.ShowAll = a.showHelp
		return a, nil
	case key.Matches(msg, keys.Tab1):
		a.activeView = viewBoard
		return a, nil
	case key.Matches(msg, keys.Tab2):
		a.activeView = viewTable
		return a, nil
	case key.Matches(msg, keys.Tab3):
		a.activeView = viewStats
		return a, a.stats.refresh()
	case key.Matches(msg, keys.Tab4):
		a.activeView = viewSettings
		return a, nil
	case key.Matches(msg, keys.Tab):
		a.activeView = (a.activeView + 1) % viewState(len(viewNames))
		if a.activeView == viewStats {
			return a, a.stats.refresh()
		}
		return a, nil
	case key.Matches(msg, keys.Search):
		a.searching = true
		return a, a.search.Focus()
	case key.Matches(msg, keys.Refresh):
		if a.loading {
			return a, nil
		}
		a.loading = true
		a.setStatus("Refreshing...", false)
		return a, a.loadCmd()
	case key.Matches(msg, keys.Export):
		a.exportPicking = true
		a.exportCursor = 0
		return a, nil
	case key.Matches(msg, keys.New):
		var cmd tea.Cmd
		a.dialog, cmd = a.dialog.openNewLead(a.leads.Sources())
		return a, cmd
	case key.Matches(msg, keys.Status):
		if l, ok := a.selected(); ok {
			var cmd tea.Cmd
			a.dialog, cmd = a.dialog.openStatus(l)
			return a, cmd
		}
		return a, nil
	case key.Matches(msg, keys.Delete):
		if l, ok := a.selected(); ok {
			var cmd tea.Cmd
			a.dialog, cmd = a.dialog.openDelete(l)
			return a, cmd
		}
		return a, nil
	}

	return a.updateActiveView(msg)
}

// updateSearch edits the search term. The view is re-derived on every
// keystroke.
func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		a.searching = false
		a.search.Blur()
		return a, nil
	case tea.KeyEsc:
		a.searching = false
		a.search.Blur()
		a.search.SetValue("")
		a.criteria.Search = ""
		a.rebuild("")
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if a.search.Value() != a.criteria.Search {
		a.criteria.Search = a.search.Value()
		a.rebuild("")
	}
	return a, cmd
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewBoard:
		a.board, cmd = a.board.update(msg)
	case viewTable:
		a.table, cmd = a.table.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) applyPreferences(p store.Preferences) (tea.Model, tea.Cmd) {
	reload := p.DateRange != a.prefs.DateRange
	a.prefs = p

	search := a.criteria.Search
	a.criteria = p.Criteria()
	a.criteria.Search = search
	a.table.setSort(a.criteria.SortBy, a.criteria.Order)
	a.rebuild("")
	a.setStatus("Settings saved", false)

	cmds := []tea.Cmd{savePrefsCmd(a.db, p)}
	if reload {
		a.loading = true
		cmds = append(cmds, a.loadCmd())
	}
	return a, tea.Batch(cmds...)
}

func (a App) selected() (lead.Lead, bool) {
	switch a.activeView {
	case viewBoard:
		return a.board.selected()
	case viewTable:
		return a.table.selected()
	}
	return lead.Lead{}, false
}

// rebuild re-derives the visible leads from the store. focusID, when set,
// keeps the cursor on that lead.
func (a *App) rebuild(focusID string) {
	now := a.now()
	all := a.leads.Leads()

	c := a.criteria
	if w, err := a.prefs.DateRange.Resolve(now); err == nil {
		c.Window = w
	}
	a.view = lead.DeriveView(all, c)

	a.board.setLeads(a.view, focusID)
	a.table.setLeads(a.view, focusID)
	a.stats.setLeads(all, now)
	a.settings.setPreferences(a.prefs, a.leads.Sources())
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusErr = isError
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewBoard:
		content = a.board.view()
	case viewTable:
		content = a.table.view()
	case viewStats:
		content = a.stats.view()
	case viewSettings:
		content = a.settings.view()
	}

	if a.searching || a.criteria.Search != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, " "+a.search.View(), content)
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	switch {
	case a.exportPicking:
		content = a.renderExportPicker()
	case a.dialog.active():
		content = lipgloss.Place(a.width, contentHeight, lipgloss.Center, lipgloss.Center, a.dialog.view())
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("leadr")
	count := mutedStyle.Render(fmt.Sprintf("  %d of %d leads", len(a.view), a.leads.Len()))
	if a.loading {
		count = warningStyle.Render("  loading...")
	}

	left := lipgloss.JoinHorizontal(lipgloss.Bottom, title, count)
	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	cached := ""
	if a.leads.Cached() {
		cached = warningStyle.Render(" ● cached " + formatAgo(a.cachedAt, a.now()))
	}

	left := footerStyle.Render(helpView)
	right := cached + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{
		titleStyle.Render("Export Format"),
		mutedStyle.Render(fmt.Sprintf("%d leads in the current view", len(a.view))),
		"",
	}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, exportCmd(a.exportDir, exportFormat(a.exportCursor), a.view, a.now())
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}
