package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/leadr/internal/lead"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Board
	laneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	selectedCardStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)
)

// statusColor is the lane color for a status, muted for unknown values.
func statusColor(s lead.Status) lipgloss.Color {
	if i := lead.ColumnIndex(lead.Columns, s); i >= 0 {
		return lipgloss.Color(lead.Columns[i].Color)
	}
	return colorMuted
}

func statusStyle(s lead.Status) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(statusColor(s))
}

// sourceColors tints the well-known source tags; anything else is muted.
var sourceColors = map[string]lipgloss.Color{
	"website":  lipgloss.Color("#3B82F6"),
	"referral": lipgloss.Color("#22C55E"),
	"walk-in":  lipgloss.Color("#EAB308"),
	"social":   lipgloss.Color("#A855F7"),
	"phone":    lipgloss.Color("#2EC4B6"),
}

func sourceColor(src string) lipgloss.Color {
	if c, ok := sourceColors[src]; ok {
		return c
	}
	return colorHighlight
}
