// Package toast shows a single transient message line. A new message
// replaces the current one and restarts its timer.
package toast

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/prodtask/internal/theme"
)

// Kind selects the toast's color.
type Kind int

const (
	KindInfo Kind = iota
	KindError
)

// ShowMsg asks the root model to display a toast. Views emit it instead of
// holding a toast of their own.
type ShowMsg struct {
	Text string
	Kind Kind
}

// Show returns a command emitting ShowMsg.
func Show(text string) tea.Cmd {
	return func() tea.Msg { return ShowMsg{Text: text} }
}

// ShowError returns a command emitting an error ShowMsg.
func ShowError(text string) tea.Cmd {
	return func() tea.Msg { return ShowMsg{Text: text, Kind: KindError} }
}

type expiredMsg struct{ seq int }

// Model holds the visible toast, if any.
type Model struct {
	text     string
	kind     Kind
	seq      int
	duration time.Duration
}

// New creates a toast model whose messages last for d.
func New(d time.Duration) Model {
	if d <= 0 {
		d = 3 * time.Second
	}
	return Model{duration: d}
}

// Show replaces the current toast and schedules its expiry.
func (m *Model) Show(text string, kind Kind) tea.Cmd {
	m.seq++
	m.text = text
	m.kind = kind

	seq := m.seq
	return tea.Tick(m.duration, func(time.Time) tea.Msg {
		return expiredMsg{seq: seq}
	})
}

// Update clears the toast when its own timer fires. Timers of replaced
// toasts are ignored.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(expiredMsg); ok && msg.seq == m.seq {
		m.text = ""
	}
	return m, nil
}

// Visible reports whether a toast is showing.
func (m Model) Visible() bool { return m.text != "" }

// Text returns the current toast text.
func (m Model) Text() string { return m.text }

// View renders the toast, or an empty string.
func (m Model) View() string {
	if m.text == "" {
		return ""
	}
	if m.kind == KindError {
		return theme.ToastErrorStyle.Render(m.text)
	}
	return theme.ToastStyle.Render(m.text)
}
