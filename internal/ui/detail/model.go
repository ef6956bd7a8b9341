package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/prodtask/internal/keys"
	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/theme"
	"github.com/nhle/prodtask/internal/ui/dashboard"
)

// BackMsg signals the parent to navigate back to the dashboard.
type BackMsg struct{}

// StatusMsg asks the parent to change the task's status.
type StatusMsg struct {
	TaskID string
	Status model.TaskStatus
}

// FeedbackMsg asks the parent to append feedback to the task.
type FeedbackMsg struct {
	TaskID  string
	Content string
}

// Model is the task detail view component.
type Model struct {
	task      *model.Task
	assignee  *model.User
	session   *model.User
	viewport  viewport.Model
	feedback  textinput.Model
	composing bool
	keys      *keys.KeyMap
	width     int
	height    int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, viewportHeight(height))
	vp.Style = lipgloss.NewStyle()

	fi := textinput.New()
	fi.Placeholder = "输入反馈信息..."
	fi.Prompt = "💬 "
	fi.Width = width - 6

	return Model{
		viewport: vp,
		feedback: fi,
		keys:     k,
		width:    width,
		height:   height,
	}
}

func viewportHeight(h int) int { return max(h-3, 3) }

// TaskID returns the id of the displayed task, or "".
func (m Model) TaskID() string {
	if m.task == nil {
		return ""
	}
	return m.task.ID
}

// Composing reports whether the feedback input has focus.
func (m Model) Composing() bool { return m.composing }

// SetTask updates the task being displayed. The viewport keeps its scroll
// position when the same task is refreshed.
func (m *Model) SetTask(task model.Task, assignee *model.User, session *model.User) {
	same := m.task != nil && m.task.ID == task.ID
	m.task = &task
	m.assignee = assignee
	m.session = session
	m.viewport.SetContent(m.renderContent())
	if !same {
		m.composing = false
		m.feedback.Reset()
		m.feedback.Blur()
		m.viewport.GotoTop()
	}
}

// Clear drops the displayed task.
func (m *Model) Clear() {
	m.task = nil
	m.composing = false
	m.feedback.Reset()
	m.feedback.Blur()
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.composing {
		return m.updateComposer(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.task != nil {
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	id := m.task.ID
	isAdmin := m.session != nil && m.session.IsAdmin()
	isEmployee := m.session != nil && !m.session.IsAdmin()

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }, true

	case key.Matches(msg, m.keys.Feedback):
		m.composing = true
		m.feedback.Reset()
		cmd := m.feedback.Focus()
		return m, cmd, true

	case key.Matches(msg, m.keys.Complete):
		if !isEmployee || m.task.IsCompleted() {
			return m, nil, true
		}
		return m, tea.Batch(
			func() tea.Msg { return StatusMsg{TaskID: id, Status: model.StatusCompleted} },
			func() tea.Msg { return BackMsg{} },
		), true

	case key.Matches(msg, m.keys.Pending):
		return m, m.setStatus(isAdmin, model.StatusPending), true
	case key.Matches(msg, m.keys.InProgress):
		return m, m.setStatus(isAdmin, model.StatusInProgress), true
	case key.Matches(msg, m.keys.Done):
		return m, m.setStatus(isAdmin, model.StatusCompleted), true

	case key.Matches(msg, m.keys.Delete):
		if !isAdmin {
			return m, nil, true
		}
		title := m.task.Title
		return m, func() tea.Msg { return dashboard.DeleteTaskMsg{TaskID: id, Title: title} }, true
	}
	return m, nil, false
}

func (m Model) setStatus(allowed bool, s model.TaskStatus) tea.Cmd {
	if !allowed || m.task.Status == s {
		return nil
	}
	id := m.task.ID
	return func() tea.Msg { return StatusMsg{TaskID: id, Status: s} }
}

func (m Model) updateComposer(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, m.keys.Back):
			m.composing = false
			m.feedback.Reset()
			m.feedback.Blur()
			return m, nil

		case key.Matches(km, m.keys.Select):
			content := strings.TrimSpace(m.feedback.Value())
			if content == "" {
				return m, nil
			}
			m.composing = false
			m.feedback.Reset()
			m.feedback.Blur()
			id := m.task.ID
			return m, func() tea.Msg { return FeedbackMsg{TaskID: id, Content: content} }
		}
	}

	var cmd tea.Cmd
	m.feedback, cmd = m.feedback.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("任务不存在")
	}

	footer := theme.HintStyle.Render(m.actionHints())
	if m.composing {
		footer = m.feedback.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), "", footer)
}

func (m Model) actionHints() string {
	hints := []string{"esc 关闭", "f 反馈"}
	if m.session != nil {
		if m.session.IsAdmin() {
			hints = append(hints, "1/2/3 设置状态", "d 删除")
		} else if !m.task.IsCompleted() {
			hints = append(hints, "x 确认完成任务")
		}
	}
	return strings.Join(hints, " | ")
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}
	task := m.task

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
		theme.PriorityStyle(task.Priority).Render(theme.PriorityLabel(task.Priority)),
		"  ",
		theme.StatusStyle(task.Status).Render(theme.StatusLabel(task.Status)),
	))
	sections = append(sections, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)
	sections = append(sections, headerStyle.Render("任务详情"))
	desc := task.Description
	if strings.TrimSpace(desc) == "" {
		desc = theme.MutedStyle.Render("无详细描述")
	}
	sections = append(sections, desc, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	sections = append(sections, fmt.Sprintf("%s  %s", metaStyle.Render("截止日期:"), task.DueDate))
	if m.assignee != nil {
		sections = append(sections, fmt.Sprintf("%s    %s", metaStyle.Render("执行人:"), m.assignee.Name))
	}
	sections = append(sections, fmt.Sprintf("%s  %s",
		metaStyle.Render("创建时间:"), task.Created().Format("2006-01-02 15:04")))

	separator := lipgloss.NewStyle().Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")
	sections = append(sections, headerStyle.Render(fmt.Sprintf("反馈与沟通 (%d)", len(task.Feedback))))

	if len(task.Feedback) == 0 {
		sections = append(sections, theme.MutedStyle.Render("暂无反馈记录"))
	}

	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	for _, fb := range task.Feedback {
		sections = append(sections,
			fmt.Sprintf("%s  %s", authorStyle.Render(fb.UserName), metaStyle.Render(fb.Time().Format("15:04:05"))),
			fb.Content,
			"",
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = viewportHeight(height)
	m.feedback.Width = width - 6
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
