package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/leadr/internal/lead"
)

// boardModel renders the Kanban lanes and tracks a card cursor per lane.
type boardModel struct {
	width  int
	height int

	lanes   []lead.Lane
	col     int
	rows    []int
	offsets []int

	showDetails bool
}

func newBoardModel() boardModel {
	return boardModel{
		lanes:   lead.Partition(nil, lead.Columns),
		rows:    make([]int, len(lead.Columns)),
		offsets: make([]int, len(lead.Columns)),
	}
}

func (b *boardModel) setSize(w, h int) {
	b.width = w
	b.height = h
}

// setLeads repartitions the view. When focusID is on the board the cursor
// follows it, otherwise cursors are clamped to the new lane sizes.
func (b *boardModel) setLeads(view []lead.Lead, focusID string) {
	b.lanes = lead.Partition(view, lead.Columns)
	if focusID != "" {
		for ci, lane := range b.lanes {
			for ri, l := range lane.Leads {
				if l.ID == focusID {
					b.col, b.rows[ci] = ci, ri
				}
			}
		}
	}
	for ci, lane := range b.lanes {
		b.rows[ci] = clamp(b.rows[ci], 0, len(lane.Leads)-1)
	}
}

func (b boardModel) selected() (lead.Lead, bool) {
	lane := b.lanes[b.col]
	if len(lane.Leads) == 0 {
		return lead.Lead{}, false
	}
	return lane.Leads[b.rows[b.col]], true
}

func (b boardModel) update(msg tea.Msg) (boardModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}

	switch {
	case key.Matches(km, keys.MoveLeft):
		return b, b.moveSelected(-1)
	case key.Matches(km, keys.MoveRight):
		return b, b.moveSelected(1)
	case key.Matches(km, keys.Left):
		if b.col > 0 {
			b.col--
		}
	case key.Matches(km, keys.Right):
		if b.col < len(b.lanes)-1 {
			b.col++
		}
	case key.Matches(km, keys.Up):
		if b.rows[b.col] > 0 {
			b.rows[b.col]--
		}
	case key.Matches(km, keys.Down):
		if b.rows[b.col] < len(b.lanes[b.col].Leads)-1 {
			b.rows[b.col]++
		}
	case key.Matches(km, keys.Enter):
		b.showDetails = !b.showDetails
		if l, ok := b.selected(); ok && b.showDetails {
			return b, refreshRequest(l.ID)
		}
	case key.Matches(km, keys.Back):
		b.showDetails = false
	}
	return b, nil
}

// moveSelected drops the selected card onto the neighbouring lane.
func (b boardModel) moveSelected(dir int) tea.Cmd {
	l, ok := b.selected()
	if !ok {
		return nil
	}
	target := b.col + dir
	if target < 0 || target >= len(b.lanes) {
		return nil
	}
	to := b.lanes[target].Column.ID
	return func() tea.Msg { return moveRequestMsg{id: l.ID, to: to} }
}

func (b boardModel) view() string {
	if b.width == 0 {
		return ""
	}

	detailWidth := 0
	if b.showDetails {
		detailWidth = min(40, b.width/3)
	}

	n := len(b.lanes)
	laneWidth := max(14, (b.width-detailWidth)/n-2)
	innerWidth := laneWidth - 2
	// Lane chrome: border (2), title, count, rule.
	visible := max(1, (b.height-5)/2)

	var rendered []string
	for ci, lane := range b.lanes {
		rendered = append(rendered, b.renderLane(ci, lane, innerWidth, visible))
	}
	board := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	if b.showDetails {
		if l, ok := b.selected(); ok {
			board = lipgloss.JoinHorizontal(lipgloss.Top, board, renderLeadDetails(l, detailWidth-2))
		}
	}
	return board
}

func (b boardModel) renderLane(ci int, lane lead.Lane, w, visible int) string {
	color := lipgloss.Color(lane.Column.Color)
	title := lipgloss.NewStyle().Bold(true).Foreground(color).Render(truncate(lane.Column.Title, w-4))
	count := mutedStyle.Render(fmt.Sprintf("%d", len(lane.Leads)))
	gap := max(1, w-lipgloss.Width(title)-lipgloss.Width(count))
	rows := []string{
		title + strings.Repeat(" ", gap) + count,
		lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("─", w)),
	}

	if len(lane.Leads) == 0 {
		rows = append(rows, mutedStyle.Render("no leads"))
	}

	start := scrollStart(b.rows[ci], visible, len(lane.Leads))
	end := min(len(lane.Leads), start+visible)
	for ri := start; ri < end; ri++ {
		l := lane.Leads[ri]
		style := cardStyle
		cursor := "  "
		if ci == b.col && ri == b.rows[ci] {
			style = selectedCardStyle
			cursor = "> "
		}
		rows = append(rows,
			style.Render(cursor+truncate(l.Name, w-2)),
			"  "+mutedStyle.Render(truncate(cardSubtitle(l), w-2)),
		)
	}
	if end < len(lane.Leads) {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  +%d more", len(lane.Leads)-end)))
	}

	style := laneStyle.Width(w)
	if ci == b.col {
		style = style.BorderForeground(color)
	}
	return style.Render(strings.Join(rows, "\n"))
}

func cardSubtitle(l lead.Lead) string {
	parts := []string{}
	if l.Source != "" {
		parts = append(parts, l.Source)
	}
	if l.Phone != "" {
		parts = append(parts, l.Phone)
	}
	return strings.Join(parts, " · ")
}

// scrollStart keeps cursor inside a window of size visible.
func scrollStart(cursor, visible, total int) int {
	if total <= visible || cursor < visible {
		return 0
	}
	return min(cursor-visible+1, total-visible)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
