package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/leadr/internal/lead"
)

type dialogKind int

const (
	dialogNone dialogKind = iota
	dialogStatus
	dialogDelete
	dialogNewLead
)

// dialogModel hosts the modal huh forms shared by the board and the table.
type dialogModel struct {
	width int

	kind   dialogKind
	form   *huh.Form
	target lead.Lead

	// Form field pointers (survive value copies)
	status  *string
	confirm *bool
	draft   *lead.NewLead
}

func newDialogModel() dialogModel {
	status, confirm := "", false
	return dialogModel{
		status:  &status,
		confirm: &confirm,
		draft:   &lead.NewLead{},
	}
}

func (d dialogModel) active() bool { return d.kind != dialogNone && d.form != nil }

func (d *dialogModel) setWidth(w int) { d.width = w }

func (d dialogModel) openStatus(l lead.Lead) (dialogModel, tea.Cmd) {
	*d.status = string(l.Status)
	options := make([]huh.Option[string], 0, len(lead.Columns))
	for _, c := range lead.Columns {
		options = append(options, huh.NewOption(c.Title, string(c.ID)))
	}
	d.kind = dialogStatus
	d.target = l
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Move " + l.Name + " to").
				Options(options...).
				Value(d.status),
		),
	).WithShowHelp(true)
	return d, d.form.Init()
}

func (d dialogModel) openDelete(l lead.Lead) (dialogModel, tea.Cmd) {
	*d.confirm = false
	d.kind = dialogDelete
	d.target = l
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete " + l.Name + "?").
				Description("The lead is removed from the backend. This cannot be undone.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(d.confirm),
		),
	).WithShowHelp(true)
	return d, d.form.Init()
}

func (d dialogModel) openNewLead(sources []string) (dialogModel, tea.Cmd) {
	*d.draft = lead.NewLead{Source: "website"}
	d.kind = dialogNewLead
	d.target = lead.Lead{}

	sourceOptions := []huh.Option[string]{huh.NewOption("website", "website")}
	for _, s := range sources {
		if s != "website" {
			sourceOptions = append(sourceOptions, huh.NewOption(s, s))
		}
	}

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&d.draft.Name).Validate(required(lead.ErrNameRequired)),
			huh.NewInput().Title("Phone").Value(&d.draft.Phone).Validate(required(lead.ErrPhoneRequired)),
			huh.NewInput().Title("Email").Value(&d.draft.Email).Validate(optionalEmail),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Source").Options(sourceOptions...).Value(&d.draft.Source),
			huh.NewInput().Title("Interest").Value(&d.draft.Interest),
			huh.NewInput().Title("Location").Value(&d.draft.Location),
		),
	).WithShowHelp(true).WithShowErrors(true)
	return d, d.form.Init()
}

func (d dialogModel) close() dialogModel {
	d.kind = dialogNone
	d.form = nil
	return d
}

func (d dialogModel) update(msg tea.Msg) (dialogModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			return d.close(), nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	switch d.form.State {
	case huh.StateAborted:
		return d.close(), nil
	case huh.StateCompleted:
		return d.complete()
	}
	return d, cmd
}

// complete turns the finished form into the request the App acts on.
func (d dialogModel) complete() (dialogModel, tea.Cmd) {
	kind, target := d.kind, d.target
	d = d.close()

	switch kind {
	case dialogStatus:
		to := lead.Status(*d.status)
		if to == target.Status {
			return d, nil
		}
		return d, func() tea.Msg { return moveRequestMsg{id: target.ID, to: to} }
	case dialogDelete:
		if !*d.confirm {
			return d, nil
		}
		return d, func() tea.Msg { return deleteRequestMsg{id: target.ID} }
	case dialogNewLead:
		draft := *d.draft
		draft.Name = strings.TrimSpace(draft.Name)
		draft.Phone = strings.TrimSpace(draft.Phone)
		draft.Email = strings.TrimSpace(draft.Email)
		return d, func() tea.Msg { return createRequestMsg{lead: draft} }
	}
	return d, nil
}

func (d dialogModel) view() string {
	if !d.active() {
		return ""
	}
	title := "New Lead"
	switch d.kind {
	case dialogStatus:
		title = "Change Status"
	case dialogDelete:
		title = "Delete Lead"
	}
	content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", d.form.View())
	return activePanelStyle.Width(min(d.width-4, 72)).Render(content)
}

func required(err error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return err
		}
		return nil
	}
}

func optionalEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 || strings.Count(s, "@") != 1 {
		return errors.New("email looks invalid")
	}
	return nil
}
