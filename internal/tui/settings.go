package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/store"
)

const dateInputLayout = "2006-01-02"

type preferencesChangedMsg struct {
	prefs store.Preferences
}

type settingsModel struct {
	width  int
	height int

	prefs   store.Preferences
	sources []string

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	source      *string
	status      *string
	sortBy      *string
	order       *string
	preset      *string
	from        *string
	to          *string
	defaultView *string
}

func newSettingsModel() settingsModel {
	src, st, sb, o := "", "", "", ""
	p, f, t, v := "", "", "", ""
	return settingsModel{
		source:      &src,
		status:      &st,
		sortBy:      &sb,
		order:       &o,
		preset:      &p,
		from:        &f,
		to:          &t,
		defaultView: &v,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *settingsModel) setPreferences(p store.Preferences, sources []string) {
	s.prefs = p
	s.sources = sources
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	p := s.prefs
	*s.source = p.Source
	*s.status = p.Status
	*s.sortBy = string(p.SortBy)
	*s.order = string(p.Order)
	*s.preset = string(p.DateRange.Preset)
	*s.from, *s.to = "", ""
	if p.DateRange.Preset == lead.PresetCustom {
		*s.from = p.DateRange.From.Format(dateInputLayout)
		*s.to = p.DateRange.To.Format(dateInputLayout)
	}
	*s.defaultView = p.DefaultView

	sourceOptions := []huh.Option[string]{huh.NewOption("All sources", lead.All)}
	for _, src := range s.sources {
		sourceOptions = append(sourceOptions, huh.NewOption(src, src))
	}
	if p.Source != lead.All && !containsString(s.sources, p.Source) {
		sourceOptions = append(sourceOptions, huh.NewOption(p.Source, p.Source))
	}

	statusOptions := []huh.Option[string]{huh.NewOption("All statuses", lead.All)}
	for _, c := range lead.Columns {
		statusOptions = append(statusOptions, huh.NewOption(c.Title, string(c.ID)))
	}

	presetOptions := make([]huh.Option[string], 0, len(lead.Presets))
	for _, pr := range lead.Presets {
		presetOptions = append(presetOptions, huh.NewOption(pr.Label(), string(pr)))
	}

	viewOptions := make([]huh.Option[string], 0, len(viewKeys))
	for i, k := range viewKeys {
		viewOptions = append(viewOptions, huh.NewOption(viewNames[i], k))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Source").Options(sourceOptions...).Value(s.source),
			huh.NewSelect[string]().Title("Status").Options(statusOptions...).Value(s.status),
		).Title("Filters"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Sort by").
				Options(
					huh.NewOption("Created date", string(lead.SortByCreatedAt)),
					huh.NewOption("Name", string(lead.SortByName)),
					huh.NewOption("Status", string(lead.SortByStatus)),
				).Value(s.sortBy),
			huh.NewSelect[string]().Title("Order").
				Options(
					huh.NewOption("Descending", string(lead.Desc)),
					huh.NewOption("Ascending", string(lead.Asc)),
				).Value(s.order),
		).Title("Sorting"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Date range").Options(presetOptions...).Value(s.preset),
			huh.NewSelect[string]().Title("Open on").Options(viewOptions...).Value(s.defaultView),
		).Title("General"),
		huh.NewGroup(
			huh.NewInput().Title("From (YYYY-MM-DD)").Value(s.from).Validate(validateDate),
			huh.NewInput().Title("To (YYYY-MM-DD)").Value(s.to).Validate(s.validateTo),
		).Title("Custom range").WithHideFunc(func() bool { return *s.preset != string(lead.PresetCustom) }),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		prefs, err := s.collect()
		if err != nil {
			return s, func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
		}
		s.prefs = prefs
		return s, func() tea.Msg { return preferencesChangedMsg{prefs: prefs} }
	}

	return s, cmd
}

// collect builds Preferences from the form values.
func (s settingsModel) collect() (store.Preferences, error) {
	p := store.Preferences{
		Source:      *s.source,
		Status:      *s.status,
		DefaultView: *s.defaultView,
	}
	var err error
	if p.SortBy, err = lead.ParseSortKey(*s.sortBy); err != nil {
		return p, err
	}
	if p.Order, err = lead.ParseSortOrder(*s.order); err != nil {
		return p, err
	}
	if p.DateRange.Preset, err = lead.ParsePreset(*s.preset); err != nil {
		return p, err
	}
	if p.DateRange.Preset == lead.PresetCustom {
		p.DateRange.From, _ = time.ParseInLocation(dateInputLayout, *s.from, time.Local)
		p.DateRange.To, _ = time.ParseInLocation(dateInputLayout, *s.to, time.Local)
		if _, err := p.DateRange.Resolve(time.Now()); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (s settingsModel) validateTo(v string) error {
	if err := validateDate(v); err != nil {
		return err
	}
	from, err := time.ParseInLocation(dateInputLayout, *s.from, time.Local)
	if err != nil {
		return nil
	}
	to, _ := time.ParseInLocation(dateInputLayout, v, time.Local)
	if to.Before(from) {
		return fmt.Errorf("end date is before start date")
	}
	return nil
}

func validateDate(v string) error {
	if _, err := time.ParseInLocation(dateInputLayout, v, time.Local); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	p := s.prefs
	dateRange := p.DateRange.Preset.Label()
	if p.DateRange.Preset == lead.PresetCustom {
		dateRange = fmt.Sprintf("%s to %s", p.DateRange.From.Format(dateInputLayout), p.DateRange.To.Format(dateInputLayout))
	}
	items := [][2]string{
		{"Source filter", labelAll(p.Source, "All sources")},
		{"Status filter", labelAll(p.Status, "All statuses")},
		{"Sort by", string(p.SortBy)},
		{"Order", string(p.Order)},
		{"Date range", dateRange},
		{"Open on", viewNames[parseView(p.DefaultView)]},
	}

	rows := []string{title, ""}
	for _, it := range items {
		label := lipgloss.NewStyle().Width(24).Render(it[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(it[1])))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func labelAll(v, all string) string {
	if v == "" || v == lead.All {
		return all
	}
	if st, err := lead.ParseStatus(v); err == nil {
		return st.Label()
	}
	return v
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
