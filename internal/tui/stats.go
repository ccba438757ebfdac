package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/pipeline"
	"github.com/sadopc/leadr/internal/store"
)

const maxSourceBars = 8

type statsModel struct {
	db     *store.Store
	width  int
	height int

	snap     lead.Snapshot
	recent   []pipeline.JournalEntry
	outcomes []store.OutcomeCount

	statusChart barchart.Model
	sourceChart barchart.Model
}

func newStatsModel(db *store.Store) statsModel {
	return statsModel{
		db:          db,
		statusChart: barchart.New(40, 10),
		sourceChart: barchart.New(40, 10),
	}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.buildCharts()
}

type statsJournalMsg struct {
	recent   []pipeline.JournalEntry
	outcomes []store.OutcomeCount
}

func (s statsModel) refresh() tea.Cmd {
	if s.db == nil {
		return nil
	}
	db := s.db
	return func() tea.Msg {
		recent, _ := db.RecentTransitions(store.JournalFilter{Limit: 6})
		outcomes, _ := db.OutcomeCounts()
		return statsJournalMsg{recent: recent, outcomes: outcomes}
	}
}

// setLeads recomputes the counters over the unfiltered collection.
func (s *statsModel) setLeads(leads []lead.Lead, now time.Time) {
	s.snap = lead.ComputeStats(leads, now)
	s.buildCharts()
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	if msg, ok := msg.(statsJournalMsg); ok {
		s.recent = msg.recent
		s.outcomes = msg.outcomes
	}
	return s, nil
}

func (s *statsModel) buildCharts() {
	chartWidth := max(20, (s.width-12)/2)
	chartHeight := 10
	if s.height > 36 {
		chartHeight = 14
	}

	var statusBars []barchart.BarData
	for _, c := range lead.Columns {
		statusBars = append(statusBars, barchart.BarData{
			Label: truncate(c.Title, 6),
			Values: []barchart.BarValue{{
				Name:  c.Title,
				Value: float64(s.snap.ByStatus[c.ID]),
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)),
			}},
		})
	}
	s.statusChart = barchart.New(chartWidth, chartHeight)
	s.statusChart.PushAll(statusBars)
	s.statusChart.Draw()

	var sourceBars []barchart.BarData
	for _, sc := range topSources(s.snap.BySource, maxSourceBars) {
		name := sc.source
		if name == "" {
			name = "(none)"
		}
		sourceBars = append(sourceBars, barchart.BarData{
			Label: truncate(name, 6),
			Values: []barchart.BarValue{{
				Name:  name,
				Value: float64(sc.count),
				Style: lipgloss.NewStyle().Foreground(sourceColor(sc.source)),
			}},
		})
	}
	if len(sourceBars) == 0 {
		sourceBars = []barchart.BarData{{
			Values: []barchart.BarValue{{Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}},
		}}
	}
	s.sourceChart = barchart.New(chartWidth, chartHeight)
	s.sourceChart.PushAll(sourceBars)
	s.sourceChart.Draw()
}

type sourceCount struct {
	source string
	count  int
}

// topSources orders sources by count, then name, and keeps the first n.
func topSources(bySource map[string]int, n int) []sourceCount {
	out := make([]sourceCount, 0, len(bySource))
	for src, c := range bySource {
		out = append(out, sourceCount{src, c})
	}
	slices.SortFunc(out, func(a, b sourceCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.source, b.source)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (s statsModel) view() string {
	w := s.width - 4

	counters := []struct {
		label string
		value string
	}{
		{"Total", fmt.Sprint(s.snap.Total)},
		{"Today", fmt.Sprint(s.snap.Today)},
		{"Yesterday", fmt.Sprint(s.snap.Yesterday)},
		{"This week", fmt.Sprint(s.snap.ThisWeek)},
		{"This month", fmt.Sprint(s.snap.ThisMonth)},
		{"In progress", fmt.Sprint(s.snap.InProgress)},
		{"Converted", fmt.Sprint(s.snap.Converted)},
		{"Conversion", formatPercent(s.snap.ConversionRate())},
	}
	var cards []string
	for _, c := range counters {
		cards = append(cards, lipgloss.JoinVertical(lipgloss.Left,
			mutedStyle.Render(c.label),
			highlightStyle.Bold(true).Render(c.value),
		))
	}
	counterRow := lipgloss.JoinHorizontal(lipgloss.Top, spaced(cards, 3)...)

	charts := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("By status"), s.statusChart.View(), s.statusLegend()),
		"    ",
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("By source"), s.sourceChart.View(), s.sourceLegend()),
	)

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Pipeline"), "", counterRow, "", charts, "", s.renderJournal(),
		),
	)
}

func (s statsModel) statusLegend() string {
	var items []string
	for _, c := range lead.Columns {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
		items = append(items, fmt.Sprintf("%s %s %d", dot, c.Title, s.snap.ByStatus[c.ID]))
	}
	return strings.Join(items, "  ")
}

func (s statsModel) sourceLegend() string {
	var items []string
	for _, sc := range topSources(s.snap.BySource, maxSourceBars) {
		dot := lipgloss.NewStyle().Foreground(sourceColor(sc.source)).Render("●")
		items = append(items, fmt.Sprintf("%s %s %d", dot, orDash(sc.source), sc.count))
	}
	if len(items) == 0 {
		return mutedStyle.Render("No leads")
	}
	return strings.Join(items, "  ")
}

func (s statsModel) renderJournal() string {
	rows := []string{titleStyle.Render("Recent status changes")}
	if len(s.outcomes) > 0 {
		var parts []string
		for _, o := range s.outcomes {
			parts = append(parts, fmt.Sprintf("%s %d", o.Outcome, o.Count))
		}
		rows = append(rows, mutedStyle.Render(strings.Join(parts, " · ")))
	}
	if len(s.recent) == 0 {
		return strings.Join(append(rows, mutedStyle.Render("  No status changes recorded yet")), "\n")
	}
	for _, e := range s.recent {
		outcome := successStyle.Render(e.Outcome)
		switch e.Outcome {
		case pipeline.RolledBack.String():
			outcome = errorStyle.Render(e.Outcome)
		case pipeline.Superseded.String():
			outcome = warningStyle.Render(e.Outcome)
		}
		rows = append(rows, fmt.Sprintf("  %-16s %s → %s  %s  %s",
			truncate(e.LeadName, 16),
			statusStyle(e.From).Render(e.From.Label()),
			statusStyle(e.To).Render(e.To.Label()),
			outcome,
			mutedStyle.Render(e.SettledAt.Local().Format("Jan 02 15:04")),
		))
	}
	return strings.Join(rows, "\n")
}

func spaced(items []string, gap int) []string {
	out := make([]string, 0, len(items)*2)
	pad := strings.Repeat(" ", gap)
	for i, it := range items {
		if i > 0 {
			out = append(out, pad)
		}
		out = append(out, it)
	}
	return out
}
