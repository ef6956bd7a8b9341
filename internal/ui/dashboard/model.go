// Package dashboard shows the signed-in user's task counters and task list.
package dashboard

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/prodtask/internal/access"
	"github.com/nhle/prodtask/internal/keys"
	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/theme"
)

// SelectedTaskMsg is sent when a user opens a task.
type SelectedTaskMsg struct {
	TaskID string
}

// CompleteTaskMsg is sent when an employee marks a task completed from the list.
type CompleteTaskMsg struct {
	TaskID string
}

// DeleteTaskMsg asks the parent to confirm deleting a task.
type DeleteTaskMsg struct {
	TaskID string
	Title  string
}

// Model is the dashboard view.
type Model struct {
	list      list.Model
	keys      *keys.KeyMap
	session   *model.User
	completed int
	pending   int
	now       func() time.Time
	width     int
	height    int
}

// New creates a dashboard.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, listHeight(height))
	l.Title = "任务列表"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		now:    time.Now,
		width:  width,
		height: height,
	}
}

func listHeight(h int) int { return max(h-5, 3) }

// SetData refreshes the view for session. tasks must already be filtered to
// what session may see; users resolve assignee names.
func (m *Model) SetData(session *model.User, tasks []model.Task, users []model.User) tea.Cmd {
	m.session = session
	m.completed, m.pending = access.Counts(tasks)

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b model.Task) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})

	now := m.now()
	items := make([]list.Item, len(sorted))
	for i, t := range sorted {
		items[i] = TaskItem{
			Task:     t,
			Assignee: names[t.AssignedToID],
			Overdue:  t.IsOverdue(now),
		}
	}
	return m.list.SetItems(items)
}

// Filtering reports whether the list's filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// SelectedTask returns the highlighted task.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		if next, cmd, handled := m.handleKey(km); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	task, ok := m.SelectedTask()

	switch {
	case key.Matches(msg, m.keys.Select):
		if !ok {
			return m, nil, true
		}
		return m, func() tea.Msg { return SelectedTaskMsg{TaskID: task.ID} }, true

	case key.Matches(msg, m.keys.Complete):
		if !ok || m.session == nil || m.session.IsAdmin() || task.IsCompleted() {
			return m, nil, true
		}
		return m, func() tea.Msg { return CompleteTaskMsg{TaskID: task.ID} }, true

	case key.Matches(msg, m.keys.Delete):
		if !ok || m.session == nil || !m.session.IsAdmin() {
			return m, nil, true
		}
		return m, func() tea.Msg { return DeleteTaskMsg{TaskID: task.ID, Title: task.Title} }, true
	}
	return m, nil, false
}

// View renders the counters above the task list.
func (m Model) View() string {
	pendingCard := theme.StatCardStyle.BorderForeground(theme.ColorBlue).Render(
		fmt.Sprintf("待处理任务\n%s", lipgloss.NewStyle().Bold(true).Render(fmt.Sprint(m.pending))))
	completedCard := theme.StatCardStyle.Render(
		fmt.Sprintf("已完成任务\n%s", lipgloss.NewStyle().Bold(true).Render(fmt.Sprint(m.completed))))
	stats := lipgloss.JoinHorizontal(lipgloss.Top, pendingCard, " ", completedCard)

	if len(m.list.Items()) == 0 {
		hint := "暂无任务"
		if m.session != nil && m.session.IsAdmin() {
			hint += "\n按 n 发布任务"
		}
		empty := lipgloss.NewStyle().
			Width(m.width).
			Height(listHeight(m.height)).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(hint)
		return lipgloss.JoinVertical(lipgloss.Left, stats, empty)
	}

	return lipgloss.JoinVertical(lipgloss.Left, stats, m.list.View())
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, listHeight(height))
}
