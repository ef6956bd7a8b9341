// Package login renders the two-step sign-in screen on top of a session.Gate.
package login

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/prodtask/internal/keys"
	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/session"
	"github.com/nhle/prodtask/internal/theme"
	"github.com/nhle/prodtask/internal/ui/toast"
)

// LoggedInMsg is emitted once the gate has authenticated a user.
type LoggedInMsg struct {
	User model.User
}

// Model is the sign-in view.
type Model struct {
	gate        *session.Gate
	keys        *keys.KeyMap
	users       []model.User
	selectedIdx int
	password    textinput.Model
	width       int
	height      int
}

// New creates a login view driving gate.
func New(gate *session.Gate, k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "请输入密码..."
	ti.Prompt = "🔒 "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Width = 30

	return Model{
		gate:     gate,
		keys:     k,
		password: ti,
		width:    width,
		height:   height,
	}
}

// SetUsers replaces the selectable accounts.
func (m *Model) SetUsers(users []model.User) {
	m.users = users
	if m.selectedIdx >= len(users) {
		m.selectedIdx = max(len(users)-1, 0)
	}
}

// Reset returns the view to account selection.
func (m *Model) Reset() {
	m.password.Reset()
	m.password.Blur()
}

// InPasswordEntry reports whether a password is being typed. The root model
// uses it to stop global shortcuts from eating keystrokes.
func (m Model) InPasswordEntry() bool {
	return m.gate.State() == session.StatePasswordEntry
}

// Update handles key input for both login steps.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.InPasswordEntry() {
			var cmd tea.Cmd
			m.password, cmd = m.password.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch m.gate.State() {
	case session.StateUserSelection:
		return m.handleSelectKey(km)
	case session.StatePasswordEntry:
		return m.handlePasswordKey(km)
	}
	return m, nil
}

func (m Model) handleSelectKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.users) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.users)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.users) > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + len(m.users)) % len(m.users)
		}
	case key.Matches(msg, m.keys.Select):
		if len(m.users) == 0 {
			return m, nil
		}
		m.gate.Select(m.users[m.selectedIdx])
		m.password.Reset()
		cmd := m.password.Focus()
		return m, cmd
	}
	return m, nil
}

func (m Model) handlePasswordKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.gate.Back()
		m.Reset()
		return m, nil

	case key.Matches(msg, m.keys.Select):
		m.gate.Input(m.password.Value())
		err := m.gate.Submit()
		if errors.Is(err, session.ErrAuthMismatch) {
			return m, toast.ShowError("密码错误，请重试")
		}
		if err != nil {
			return m, nil
		}
		m.Reset()
		user := m.gate.Current()
		return m, func() tea.Msg { return LoggedInMsg{User: *user} }
	}

	var cmd tea.Cmd
	m.password, cmd = m.password.Update(msg)
	return m, cmd
}

// View renders the current login step.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("生产任务管理"))
	b.WriteString("\n")
	b.WriteString(theme.MutedStyle.Render("高效管理生产流程与团队协作"))
	b.WriteString("\n\n")

	if c := m.gate.Candidate(); c != nil && m.InPasswordEntry() {
		b.WriteString(fmt.Sprintf("%s %s\n\n", c.Name, theme.RoleStyle(c.Role).Render(model.RoleLabel(c.Role))))
		b.WriteString("请输入密码\n")
		b.WriteString(m.password.View())
		b.WriteString("\n\n")
		b.WriteString(theme.HintStyle.Render("enter 登录 | esc 返回"))
	} else {
		b.WriteString(theme.HintStyle.Render("选择账号登录"))
		b.WriteString("\n\n")
		if len(m.users) == 0 {
			b.WriteString(theme.MutedStyle.Render("没有可用账号"))
		}
		for i, u := range m.users {
			line := fmt.Sprintf("%s %s", u.Name, theme.RoleStyle(u.Role).Render(model.RoleLabel(u.Role)))
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(line))
			} else {
				b.WriteString(theme.ListItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(theme.HintStyle.Render("j/k 选择 | enter 确认 | q 退出"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		theme.PanelStyle.Render(b.String()))
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
