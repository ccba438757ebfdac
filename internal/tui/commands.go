package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/leadr/internal/export"
	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/pipeline"
	"github.com/sadopc/leadr/internal/store"
)

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadLeadsCmd fetches every page for r and caches the result locally.
func loadLeadsCmd(leads *pipeline.Store, db *store.Store, log *slog.Logger, r lead.DateRange) tea.Cmd {
	return func() tea.Msg {
		if err := leads.Load(context.Background(), r); err != nil {
			return leadsLoadedMsg{err: err}
		}
		if db != nil {
			if err := db.SaveSnapshot(leads.Leads(), leads.LoadedAt(), r.Preset); err != nil {
				log.Warn("saving lead snapshot", "err", err)
			}
		}
		return leadsLoadedMsg{count: leads.Len()}
	}
}

func commitCmd(ctrl *pipeline.Controller, t *pipeline.Transition) tea.Cmd {
	return func() tea.Msg {
		outcome, err := ctrl.Commit(context.Background(), t)
		return transitionSettledMsg{transition: *t, outcome: outcome, err: err}
	}
}

func refreshRequest(id string) tea.Cmd {
	return func() tea.Msg { return refreshRequestMsg{id: id} }
}

func refreshCmd(ctrl *pipeline.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		l, err := ctrl.Refresh(context.Background(), id)
		return leadRefreshedMsg{id: id, lead: l, err: err}
	}
}

func deleteCmd(ctrl *pipeline.Controller, l lead.Lead) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.Delete(context.Background(), l.ID)
		return leadDeletedMsg{id: l.ID, name: l.Name, err: err}
	}
}

func createCmd(ctrl *pipeline.Controller, in lead.NewLead) tea.Cmd {
	return func() tea.Msg {
		created, err := ctrl.Create(context.Background(), in)
		return leadCreatedMsg{lead: created, err: err}
	}
}

func savePrefsCmd(db *store.Store, p store.Preferences) tea.Cmd {
	if db == nil {
		return nil
	}
	return func() tea.Msg {
		if err := db.SavePreferences(p); err != nil {
			return statusMsg{text: fmt.Sprintf("Saving settings: %v", err), isError: true}
		}
		return nil
	}
}

type exportFormat int

const (
	exportCSV exportFormat = iota
	exportJSON
)

var exportFormats = []string{"CSV", "JSON"}

// exportCmd writes the leads currently on screen.
func exportCmd(dir string, format exportFormat, leads []lead.Lead, now time.Time) tea.Cmd {
	return func() tea.Msg {
		var (
			path string
			err  error
		)
		switch format {
		case exportJSON:
			path, err = export.WriteJSON(dir, leads, now)
		default:
			path, err = export.WriteCSV(dir, leads, now)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path, count: len(leads)}
	}
}
