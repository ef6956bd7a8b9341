// Package team lets administrators add and remove employee accounts.
package team

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/prodtask/internal/keys"
	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/theme"
	"github.com/nhle/prodtask/internal/ui/toast"
)

// CloseMsg signals the parent to close the team view.
type CloseMsg struct{}

// CreateUserMsg asks the parent to add an employee.
type CreateUserMsg struct {
	Name     string
	Password string
}

// DeleteUserMsg asks the parent to confirm removing an employee.
type DeleteUserMsg struct {
	UserID string
	Name   string
}

type teamMode int

const (
	modeList teamMode = iota
	modeForm
)

type formBindings struct {
	name     string
	password string
}

// Model is the Bubble Tea model for team management.
type Model struct {
	mode        teamMode
	keys        *keys.KeyMap
	users       []model.User
	selectedIdx int
	revealed    map[string]bool
	form        *huh.Form
	fb          *formBindings
	width       int
	height      int
}

// New creates a new team view.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:     modeList,
		keys:     k,
		revealed: make(map[string]bool),
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// SetUsers replaces the displayed accounts.
func (m *Model) SetUsers(users []model.User) {
	m.users = users
	if m.selectedIdx >= len(m.users) {
		m.selectedIdx = max(len(m.users)-1, 0)
	}
}

// Open resets the view to the member list with passwords hidden.
func (m *Model) Open() {
	m.mode = modeList
	m.form = nil
	clear(m.revealed)
}

// Editing reports whether the add-employee form has focus.
func (m Model) Editing() bool { return m.mode == modeForm }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == modeForm {
		return m.updateForm(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.users) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.users)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.users) > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + len(m.users)) % len(m.users)
		}

	case key.Matches(msg, m.keys.AddEmployee):
		m.fb.name = ""
		m.fb.password = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.RevealPassword):
		if u, ok := m.selected(); ok {
			m.revealed[u.ID] = !m.revealed[u.ID]
		}

	case key.Matches(msg, m.keys.Delete):
		u, ok := m.selected()
		if !ok {
			return m, nil
		}
		if u.IsAdmin() {
			return m, toast.ShowError("管理员账号不可删除")
		}
		return m, func() tea.Msg { return DeleteUserMsg{UserID: u.ID, Name: u.Name} }
	}
	return m, nil
}

func (m Model) selected() (model.User, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.users) {
		return model.User{}, false
	}
	return m.users[m.selectedIdx], true
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("员工姓名").
				Placeholder("输入姓名...").
				Value(&m.fb.name),
			huh.NewInput().
				Title("设置登录密码").
				Placeholder("输入密码...").
				Value(&m.fb.password),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Back) {
		m.mode = modeList
		return m, nil
	}
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.mode = modeList
		name, pw := m.fb.name, m.fb.password
		if strings.TrimSpace(name) == "" || strings.TrimSpace(pw) == "" {
			return m, toast.ShowError("请输入员工姓名和密码")
		}
		return m, func() tea.Msg { return CreateUserMsg{Name: name, Password: pw} }
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the team view.
func (m Model) View() string {
	if m.mode == modeForm && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				theme.TitleStyle.Render("添加新员工"),
				m.form.View(),
			))
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("现有团队成员"))
	b.WriteString("\n\n")

	for i, u := range m.users {
		pw := strings.Repeat("•", 6)
		if m.revealed[u.ID] {
			pw = u.Password
		}
		label := fmt.Sprintf("%s %s %s",
			u.Name,
			theme.RoleStyle(u.Role).Render(model.RoleLabel(u.Role)),
			theme.HintStyle.Render("密码: "+pw),
		)
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HintStyle.Render("a 添加员工 | v 显示密码 | d 删除员工 | esc 返回"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}
