package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/leadr/internal/lead"
)

type tableModel struct {
	width  int
	height int

	leads  []lead.Lead
	cursor int
	sortBy lead.SortKey
	order  lead.SortOrder

	showDetails bool
}

func newTableModel() tableModel {
	c := lead.DefaultCriteria()
	return tableModel{sortBy: c.SortBy, order: c.Order}
}

func (t *tableModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t *tableModel) setLeads(view []lead.Lead, focusID string) {
	t.leads = view
	if focusID != "" {
		for i, l := range view {
			if l.ID == focusID {
				t.cursor = i
			}
		}
	}
	t.cursor = clamp(t.cursor, 0, len(view)-1)
}

func (t *tableModel) setSort(by lead.SortKey, order lead.SortOrder) {
	t.sortBy, t.order = by, order
}

func (t tableModel) selected() (lead.Lead, bool) {
	if len(t.leads) == 0 {
		return lead.Lead{}, false
	}
	return t.leads[t.cursor], true
}

func (t tableModel) update(msg tea.Msg) (tableModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	switch {
	case key.Matches(km, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(km, keys.Down):
		if t.cursor < len(t.leads)-1 {
			t.cursor++
		}
	case key.Matches(km, keys.SortName):
		return t, sortCmd(lead.SortByName)
	case key.Matches(km, keys.SortDate):
		return t, sortCmd(lead.SortByCreatedAt)
	case key.Matches(km, keys.SortState):
		return t, sortCmd(lead.SortByStatus)
	case key.Matches(km, keys.Enter):
		t.showDetails = !t.showDetails
		if l, ok := t.selected(); ok && t.showDetails {
			return t, refreshRequest(l.ID)
		}
	case key.Matches(km, keys.Back):
		t.showDetails = false
	}
	return t, nil
}

func sortCmd(k lead.SortKey) tea.Cmd {
	return func() tea.Msg { return sortRequestMsg{key: k} }
}

type tableColumn struct {
	title string
	key   lead.SortKey
	width int
}

func (t tableModel) columns(w int) []tableColumn {
	cols := []tableColumn{
		{title: "Name", key: lead.SortByName},
		{title: "Phone", width: 14},
		{title: "Email", width: 24},
		{title: "Source", width: 12},
		{title: "Status", key: lead.SortByStatus, width: 12},
		{title: "Created", key: lead.SortByCreatedAt, width: 13},
	}
	fixed := 0
	for _, c := range cols[1:] {
		fixed += c.width + 1
	}
	cols[0].width = max(12, w-fixed-2)
	return cols
}

func (t tableModel) view() string {
	detailWidth := 0
	if t.showDetails {
		detailWidth = min(40, t.width/3)
	}
	w := t.width - 4 - detailWidth
	cols := t.columns(w - 4)

	var header []string
	for _, c := range cols {
		title := c.title
		if c.key != "" && c.key == t.sortBy {
			arrow := "▲"
			if t.order == lead.Desc {
				arrow = "▼"
			}
			title += " " + arrow
		}
		header = append(header, padRight(title, c.width))
	}

	rows := []string{
		titleStyle.Render(fmt.Sprintf("Leads (%d)", len(t.leads))),
		"",
		mutedStyle.Render("  " + strings.Join(header, " ")),
	}

	if len(t.leads) == 0 {
		rows = append(rows, "", mutedStyle.Render("  No leads match the current filters."))
	}

	visible := max(1, t.height-8)
	start := scrollStart(t.cursor, visible, len(t.leads))
	end := min(len(t.leads), start+visible)
	for i := start; i < end; i++ {
		l := t.leads[i]
		cells := []string{
			padRight(l.Name, cols[0].width),
			padRight(orDash(l.Phone), cols[1].width),
			padRight(orDash(l.Email), cols[2].width),
			padRight(orDash(l.Source), cols[3].width),
			statusStyle(l.Status).Render(padRight(l.Status.Label(), cols[4].width)),
			padRight(formatDate(l.CreatedAt), cols[5].width),
		}
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor)+strings.Join(cells, " "))
	}

	rows = append(rows, "", mutedStyle.Render("  N/C/S: sort  m: status  d: delete  enter: details"))
	table := panelStyle.Width(w).Render(strings.Join(rows, "\n"))

	if t.showDetails {
		if l, ok := t.selected(); ok {
			return lipgloss.JoinHorizontal(lipgloss.Top, table, renderLeadDetails(l, detailWidth-2))
		}
	}
	return table
}

func padRight(s string, w int) string {
	s = truncate(s, w)
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
