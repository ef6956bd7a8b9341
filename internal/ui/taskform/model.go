// Package taskform is the administrator's task creation form.
package taskform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/prodtask/internal/ai"
	"github.com/nhle/prodtask/internal/keys"
	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/state"
	"github.com/nhle/prodtask/internal/theme"
	"github.com/nhle/prodtask/internal/ui/toast"
)

// SubmitMsg is dispatched when the form is completed.
type SubmitMsg struct {
	Input state.TaskInput
}

// CancelMsg is dispatched when the user leaves the form.
type CancelMsg struct{}

// RefinedMsg carries the result of a refine job.
type RefinedMsg struct {
	JobID uint64
	Text  string
	Kept  bool
}

// Refiner starts background description refinement.
type Refiner interface {
	Enabled() bool
	Start(ctx context.Context, input string) *ai.Job
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	assigneeID  string
	priority    model.Priority
	dueDate     string
}

// Model is the Bubble Tea model for the task creation form.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	keys      *keys.KeyMap
	refiner   Refiner
	job       *ai.Job
	employees []model.User
	width     int
	height    int
}

// New creates a new task form model. refiner may be nil.
func New(k *keys.KeyMap, refiner Refiner, width, height int) Model {
	return Model{
		fb:      &formBindings{priority: model.PriorityMedium},
		keys:    k,
		refiner: refiner,
		width:   width,
		height:  height,
	}
}

// Busy reports whether a refine job is running.
func (m Model) Busy() bool { return m.job != nil }

// Start clears the form and offers employees as assignees. The first
// employee is preselected.
func (m *Model) Start(employees []model.User) tea.Cmd {
	m.Reset()
	m.employees = employees
	m.fb.title = ""
	m.fb.description = ""
	m.fb.priority = model.PriorityMedium
	m.fb.dueDate = ""
	m.fb.assigneeID = ""
	if len(employees) > 0 {
		m.fb.assigneeID = employees[0].ID
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Reset cancels any running refine job. Its result will be discarded.
func (m *Model) Reset() {
	if m.job != nil {
		m.job.Cancel()
		m.job = nil
	}
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefinedMsg:
		return m.applyRefined(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.Reset()
			return m, func() tea.Msg { return CancelMsg{} }
		case key.Matches(msg, m.keys.Refine):
			return m.startRefine()
		}
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		m.Reset()
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

func (m Model) startRefine() (Model, tea.Cmd) {
	if m.job != nil {
		return m, nil
	}
	if strings.TrimSpace(m.fb.title) == "" {
		return m, toast.ShowError("请先输入任务标题")
	}
	if m.refiner == nil || !m.refiner.Enabled() {
		return m, toast.ShowError("未配置 AI 密钥")
	}

	job := m.refiner.Start(context.Background(), ai.ComposeInput(m.fb.title, m.fb.description))
	m.job = job
	return m, func() tea.Msg {
		text, kept := job.Wait()
		return RefinedMsg{JobID: job.ID(), Text: text, Kept: kept}
	}
}

func (m Model) applyRefined(msg RefinedMsg) (Model, tea.Cmd) {
	if m.job == nil || m.job.ID() != msg.JobID || !msg.Kept {
		return m, nil
	}
	m.job = nil
	m.fb.description = msg.Text
	m.form = m.buildForm()
	return m, m.form.Init()
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	refine := theme.HintStyle.Render("ctrl+r AI 智能完善")
	if m.job != nil {
		refine = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("AI生成中...")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render("发布新任务"),
		m.form.View(),
		refine,
	)

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	assignees := make([]huh.Option[string], 0, len(m.employees))
	for _, e := range m.employees {
		assignees = append(assignees, huh.NewOption(e.Name, e.ID))
	}
	if len(assignees) == 0 {
		assignees = append(assignees, huh.NewOption("无员工可选", ""))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("任务标题").
				Placeholder("例如：检查传送带").
				Value(&m.fb.title).
				Validate(validateRequired("任务标题")),
			huh.NewText().
				Title("任务详情").
				Placeholder("输入简单的描述，AI可以帮您完善...").
				Value(&m.fb.description),
			huh.NewSelect[string]().
				Title("指派给").
				Options(assignees...).
				Value(&m.fb.assigneeID),
			huh.NewSelect[model.Priority]().
				Title("优先级").
				Options(
					huh.NewOption(theme.PriorityLabel(model.PriorityHigh), model.PriorityHigh),
					huh.NewOption(theme.PriorityLabel(model.PriorityMedium), model.PriorityMedium),
					huh.NewOption(theme.PriorityLabel(model.PriorityLow), model.PriorityLow),
				).
				Value(&m.fb.priority),
			huh.NewInput().
				Title("截止日期").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.dueDate).
				Validate(validateDate),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	in := state.TaskInput{
		Title:       strings.TrimSpace(m.fb.title),
		Description: m.fb.description,
		Priority:    m.fb.priority,
		AssigneeID:  m.fb.assigneeID,
		DueDate:     strings.TrimSpace(m.fb.dueDate),
	}
	return func() tea.Msg { return SubmitMsg{Input: in} }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-6, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("请填写%s", fieldName)
		}
		return nil
	}
}

func validateDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("请填写截止日期")
	}
	if _, err := time.Parse(model.DueDateLayout, s); err != nil {
		return fmt.Errorf("日期格式应为 YYYY-MM-DD")
	}
	return nil
}
