package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/pipeline"
)

// viewState represents the currently active view.
type viewState int

const (
	viewBoard viewState = iota
	viewTable
	viewStats
	viewSettings
)

var viewNames = []string{"Board", "Table", "Stats", "Settings"}

var viewKeys = []string{"board", "table", "stats", "settings"}

func parseView(s string) viewState {
	for i, k := range viewKeys {
		if k == s {
			return viewState(i)
		}
	}
	return viewBoard
}

// --- Messages ---

type leadsLoadedMsg struct {
	count int
	err   error
}

// moveRequestMsg asks the App to start a status transition.
type moveRequestMsg struct {
	id string
	to lead.Status
}

type transitionSettledMsg struct {
	transition pipeline.Transition
	outcome    pipeline.Outcome
	err        error
}

type deleteRequestMsg struct {
	id string
}

type leadDeletedMsg struct {
	id   string
	name string
	err  error
}

type createRequestMsg struct {
	lead lead.NewLead
}

type leadCreatedMsg struct {
	lead lead.Lead
	err  error
}

// refreshRequestMsg asks for the backend's copy of a lead whose details
// were just opened.
type refreshRequestMsg struct {
	id string
}

type leadRefreshedMsg struct {
	id   string
	lead lead.Lead
	err  error
}

type sortRequestMsg struct {
	key lead.SortKey
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path  string
	count int
}

// --- Helpers ---

func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > w {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 02, 2006")
}

// formatAgo renders how long before now t was, at minute resolution.
func formatAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// renderLeadDetails is the expanded card shown for the selected lead.
func renderLeadDetails(l lead.Lead, width int) string {
	label := lipgloss.NewStyle().Width(10).Foreground(colorMuted)
	row := func(k, v string) string {
		return label.Render(k) + " " + truncate(orDash(v), width-14)
	}
	rows := []string{
		titleStyle.Render(truncate(l.Name, width-4)),
		"",
		row("Status", statusStyle(l.Status).Render(l.Status.Label())),
		row("Phone", l.Phone),
		row("Email", l.Email),
		row("Source", l.Source),
		row("Interest", l.Interest),
		row("Location", l.Location),
		row("Notes", l.Notes),
		row("Created", formatDate(l.CreatedAt)),
		row("Updated", formatDate(l.UpdatedAt)),
	}
	return panelStyle.Width(width).Render(strings.Join(rows, "\n"))
}
