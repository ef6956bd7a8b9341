// Package notifications renders the notification center.
package notifications

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/prodtask/internal/keys"
	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/theme"
)

// CloseMsg signals the parent to close the notification center.
type CloseMsg struct{}

// OpenTaskMsg asks the parent to show the task a notification refers to.
type OpenTaskMsg struct {
	TaskID string
}

// Model is the Bubble Tea model for the notification center.
type Model struct {
	keys        *keys.KeyMap
	items       []model.Notification
	selectedIdx int
	offset      int
	width       int
	height      int
}

// New creates an empty notification center.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// SetNotifications replaces the entries. They are shown in the given
// order, which callers keep newest first.
func (m *Model) SetNotifications(ns []model.Notification) {
	m.items = slices.Clone(ns)
	if m.selectedIdx >= len(m.items) {
		m.selectedIdx = max(len(m.items)-1, 0)
	}
	m.clampOffset()
}

// Open moves the cursor back to the newest entry.
func (m *Model) Open() {
	m.selectedIdx = 0
	m.offset = 0
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(km, m.keys.Down):
		if m.selectedIdx < len(m.items)-1 {
			m.selectedIdx++
			m.clampOffset()
		}

	case key.Matches(km, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
			m.clampOffset()
		}

	case key.Matches(km, m.keys.Select):
		if m.selectedIdx < len(m.items) {
			if id := m.items[m.selectedIdx].TaskID; id != "" {
				return m, func() tea.Msg { return OpenTaskMsg{TaskID: id} }
			}
		}
	}
	return m, nil
}

// visibleRows is how many two-line entries fit.
func (m Model) visibleRows() int {
	return max((m.height-4)/2, 1)
}

func (m *Model) clampOffset() {
	rows := m.visibleRows()
	if m.selectedIdx < m.offset {
		m.offset = m.selectedIdx
	}
	if m.selectedIdx >= m.offset+rows {
		m.offset = m.selectedIdx - rows + 1
	}
}

// View renders the notification center.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("通知中心"))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(theme.MutedStyle.Render("暂无新通知"))
	}

	end := min(m.offset+m.visibleRows(), len(m.items))
	for i := m.offset; i < end; i++ {
		n := m.items[i]
		msg := n.Message
		if !n.Read {
			msg = theme.UnreadStyle.Render("● " + msg)
		} else {
			msg = "  " + msg
		}
		line := fmt.Sprintf("%s\n    %s", msg, theme.HintStyle.Render(formatTime(n.Time())))
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.clampOffset()
}
