// Package confirm asks the user to confirm a destructive action.
package confirm

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/prodtask/internal/keys"
	"github.com/nhle/prodtask/internal/theme"
)

// ConfirmedMsg reports that the user accepted.
type ConfirmedMsg struct{}

// CancelledMsg reports that the user declined or backed out.
type CancelledMsg struct{}

type formBindings struct {
	ok bool
}

// Model wraps a single huh confirm field.
type Model struct {
	keys   *keys.KeyMap
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates an idle confirmation view.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, fb: &formBindings{}, width: width, height: height}
}

// Ask prepares the dialog with the given description.
func (m *Model) Ask(description string) tea.Cmd {
	m.fb.ok = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("确认删除?").
				Description(description).
				Affirmative("删除").
				Negative("取消").
				Value(&m.fb.ok),
		),
	).WithWidth(min(max(m.width-4, 30), 60)).WithShowHelp(false)
	return m.form.Init()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Back) {
		m.form = nil
		return m, func() tea.Msg { return CancelledMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		if m.fb.ok {
			return m, func() tea.Msg { return ConfirmedMsg{} }
		}
		return m, func() tea.Msg { return CancelledMsg{} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelledMsg{} }
	}
	return m, cmd
}

// View renders the dialog centered in the content area.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	box := theme.PanelStyle.Render(m.form.View())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
