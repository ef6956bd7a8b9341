// Package app wires the views together into the root Bubble Tea model.
package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/prodtask/internal/access"
	"github.com/nhle/prodtask/internal/keys"
	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/notify"
	"github.com/nhle/prodtask/internal/session"
	"github.com/nhle/prodtask/internal/state"
	"github.com/nhle/prodtask/internal/ui"
	"github.com/nhle/prodtask/internal/ui/command"
	"github.com/nhle/prodtask/internal/ui/confirm"
	"github.com/nhle/prodtask/internal/ui/dashboard"
	"github.com/nhle/prodtask/internal/ui/detail"
	helpview "github.com/nhle/prodtask/internal/ui/help"
	"github.com/nhle/prodtask/internal/ui/login"
	"github.com/nhle/prodtask/internal/ui/notifications"
	"github.com/nhle/prodtask/internal/ui/taskform"
	"github.com/nhle/prodtask/internal/ui/team"
	"github.com/nhle/prodtask/internal/ui/toast"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewDashboard
	ViewDetail
	ViewTaskForm
	ViewTeam
	ViewNotifications
	ViewHelp
	ViewCommand
	ViewConfirm
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the state manager.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	manager      *state.Manager
	gate         *session.Gate
	alerter      *notify.Alerter
	keys         *keys.KeyMap
	log          *zap.Logger

	login         login.Model
	dashboard     dashboard.Model
	detail        detail.Model
	taskForm      taskform.Model
	team          team.Model
	notifications notifications.Model
	helpView      helpview.Model
	commandView   command.Model
	confirm       confirm.Model
	toast         toast.Model

	pending pending
	unread  int
	ready   bool
}

// New creates the root model. refiner and alerter may be nil.
func New(
	mgr *state.Manager,
	refiner taskform.Refiner,
	alerter *notify.Alerter,
	toastDuration time.Duration,
	log *zap.Logger,
) Model {
	if log == nil {
		log = zap.NewNop()
	}
	k := keys.DefaultKeyMap()
	gate := session.New()

	m := Model{
		currentView:   ViewLogin,
		manager:       mgr,
		gate:          gate,
		alerter:       alerter,
		keys:          k,
		log:           log,
		login:         login.New(gate, k, 80, 24),
		dashboard:     dashboard.New(k, 80, 24),
		detail:        detail.New(k, 80, 24),
		taskForm:      taskform.New(k, refiner, 80, 24),
		team:          team.New(k, 80, 24),
		notifications: notifications.New(k, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
		confirm:       confirm.New(k, 80, 24),
		toast:         toast.New(toastDuration),
	}
	m.login.SetUsers(mgr.Users())
	return m
}

// Init sets the terminal title.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("生产任务管理")
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.toast, _ = m.toast.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.login.SetSize(w, h)
		m.dashboard.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.taskForm.SetSize(w, h)
		m.team.SetSize(w, h)
		m.notifications.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.confirm.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case toast.ShowMsg:
		cmd := m.toast.Show(msg.Text, msg.Kind)
		return m, cmd

	case mutationDoneMsg:
		cmds := []tea.Cmd{m.refresh()}
		switch {
		case msg.err != nil:
			cmds = append(cmds, m.toast.Show(failureText(msg), toast.KindError))
		case msg.notice != "":
			cmds = append(cmds, m.toast.Show(msg.notice, toast.KindInfo))
		}
		return m, tea.Batch(cmds...)

	case permissionMsg:
		m.log.Info("alert permission", zap.Stringer("permission", msg.permission))
		return m, nil

	case login.LoggedInMsg:
		m.log.Info("signed in", zap.String("user_id", msg.User.ID), zap.String("role", string(msg.User.Role)))
		m.currentView = ViewDashboard
		welcome := m.toast.Show("欢迎回来, "+msg.User.Name, toast.KindInfo)
		return m, tea.Batch(m.refresh(), m.requestPermission(), welcome)

	case dashboard.SelectedTaskMsg:
		return m.openTask(msg.TaskID)

	case notifications.OpenTaskMsg:
		return m.openTask(msg.TaskID)

	case dashboard.CompleteTaskMsg:
		if u := m.gate.Current(); u != nil {
			return m, m.setStatus(msg.TaskID, model.StatusCompleted, *u)
		}
		return m, nil

	case dashboard.DeleteTaskMsg:
		return m.ask(deleteTask(msg.TaskID))

	case detail.BackMsg:
		m.detail.Clear()
		m.currentView = ViewDashboard
		return m, nil

	case detail.StatusMsg:
		if u := m.gate.Current(); u != nil {
			return m, m.setStatus(msg.TaskID, msg.Status, *u)
		}
		return m, nil

	case detail.FeedbackMsg:
		if u := m.gate.Current(); u != nil {
			return m, m.addFeedback(msg.TaskID, *u, msg.Content)
		}
		return m, nil

	case taskform.SubmitMsg:
		u := m.gate.Current()
		if u == nil || !u.IsAdmin() {
			return m, nil
		}
		in := msg.Input
		in.CreatorID = u.ID
		m.currentView = ViewDashboard
		return m, m.createTask(in)

	case taskform.CancelMsg:
		m.currentView = ViewDashboard
		return m, nil

	case taskform.RefinedMsg:
		// Results may arrive after the form was left; the form discards stale ones.
		var cmd tea.Cmd
		m.taskForm, cmd = m.taskForm.Update(msg)
		return m, cmd

	case team.CloseMsg:
		m.currentView = ViewDashboard
		return m, nil

	case team.CreateUserMsg:
		return m, m.createUser(msg.Name, msg.Password)

	case team.DeleteUserMsg:
		return m.ask(deleteUser(msg.UserID))

	case notifications.CloseMsg:
		m.currentView = ViewDashboard
		return m, nil

	case confirm.ConfirmedMsg:
		p := m.pending
		m.pending = pending{}
		m.currentView = m.previousView
		return m, m.runPending(p)

	case confirm.CancelledMsg:
		m.pending = pending{}
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if !m.capturingInput() {
			if next, cmd, handled := m.handleGlobalKey(msg); handled {
				return next, cmd
			}
		}
	}

	return m.updateActiveView(msg)
}

// capturingInput reports whether the active view is taking free text, in
// which case single-key shortcuts must reach it untouched.
func (m Model) capturingInput() bool {
	switch m.currentView {
	case ViewLogin:
		return m.login.InPasswordEntry()
	case ViewDashboard:
		return m.dashboard.Filtering()
	case ViewDetail:
		return m.detail.Composing()
	case ViewTeam:
		return m.team.Editing()
	case ViewTaskForm, ViewCommand, ViewConfirm:
		return true
	}
	return false
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	session := m.gate.Current()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewLogin || m.currentView == ViewDashboard {
			next, cmd := m.quit()
			return next, cmd, true
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Command):
		if session == nil {
			return m, nil, false
		}
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true
	}

	if m.currentView != ViewDashboard || session == nil {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.NewTask):
		next, cmd := m.openTaskForm()
		return next, cmd, true
	case key.Matches(msg, m.keys.Team):
		next, cmd := m.openTeam()
		return next, cmd, true
	case key.Matches(msg, m.keys.Notifications):
		next, cmd := m.openNotifications()
		return next, cmd, true
	case key.Matches(msg, m.keys.Logout):
		next, cmd := m.logout()
		return next, cmd, true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.login, cmd = m.login.Update(msg)
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewTaskForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewTeam:
		m.team, cmd = m.team.Update(msg)
	case ViewNotifications:
		m.notifications, cmd = m.notifications.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewConfirm:
		m.confirm, cmd = m.confirm.Update(msg)
	}

	return m, cmd
}

// refresh pushes the latest state snapshot into every view. It signs out
// when the session user no longer exists.
func (m *Model) refresh() tea.Cmd {
	users := m.manager.Users()
	m.gate.Refresh(users)
	m.login.SetUsers(users)
	m.team.SetUsers(users)

	session := m.gate.Current()
	if session == nil {
		if m.currentView != ViewLogin {
			m.resetSession()
		}
		return nil
	}

	tasks := access.VisibleTasks(m.manager.Tasks(), session)
	listCmd := m.dashboard.SetData(session, tasks, users)

	visible := access.VisibleNotifications(m.manager.Notifications(), session)
	m.notifications.SetNotifications(visible)
	m.unread = access.UnreadCount(visible)

	if id := m.detail.TaskID(); id != "" {
		if t, ok := findTask(tasks, id); ok {
			m.detail.SetTask(t, m.userPtr(t.AssignedToID), session)
		} else {
			m.detail.Clear()
			if m.currentView == ViewDetail {
				m.currentView = ViewDashboard
			}
		}
	}

	return tea.Batch(listCmd, m.checkAlert(visible))
}

func findTask(tasks []model.Task, id string) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (m Model) userPtr(id string) *model.User {
	u, ok := m.manager.User(id)
	if !ok {
		return nil
	}
	return &u
}

// openTask shows a task the session user is allowed to see.
func (m Model) openTask(id string) (Model, tea.Cmd) {
	session := m.gate.Current()
	if session == nil {
		return m, nil
	}
	t, ok := findTask(access.VisibleTasks(m.manager.Tasks(), session), id)
	if !ok {
		return m, toast.ShowError("任务不存在或已删除")
	}
	m.detail.SetTask(t, m.userPtr(t.AssignedToID), session)
	m.currentView = ViewDetail
	return m, nil
}

func (m Model) openTaskForm() (Model, tea.Cmd) {
	if u := m.gate.Current(); u == nil || !u.IsAdmin() {
		return m, nil
	}
	m.currentView = ViewTaskForm
	cmd := m.taskForm.Start(m.manager.Employees())
	return m, cmd
}

func (m Model) openTeam() (Model, tea.Cmd) {
	if u := m.gate.Current(); u == nil || !u.IsAdmin() {
		return m, nil
	}
	m.team.SetUsers(m.manager.Users())
	m.team.Open()
	m.currentView = ViewTeam
	return m, nil
}

func (m Model) openNotifications() (Model, tea.Cmd) {
	u := m.gate.Current()
	if u == nil {
		return m, nil
	}
	m.notifications.Open()
	m.currentView = ViewNotifications
	if m.unread == 0 {
		return m, nil
	}
	return m, m.markAllRead(u.ID)
}

// ask shows the confirmation dialog for p.
func (m Model) ask(p pending) (Model, tea.Cmd) {
	if u := m.gate.Current(); u == nil || !u.IsAdmin() || m.pending.active() {
		return m, nil
	}
	m.pending = p
	m.previousView = m.currentView
	m.currentView = ViewConfirm
	cmd := m.confirm.Ask(p.prompt())
	return m, cmd
}

func (m Model) logout() (Model, tea.Cmd) {
	if u := m.gate.Current(); u != nil {
		m.log.Info("signed out", zap.String("user_id", u.ID))
	}
	m.gate.Logout()
	m.resetSession()
	return m, nil
}

// resetSession drops per-session view state and returns to the login screen.
func (m *Model) resetSession() {
	m.login.Reset()
	m.taskForm.Reset()
	m.detail.Clear()
	m.pending = pending{}
	m.unread = 0
	m.currentView = ViewLogin
	m.previousView = ViewDashboard
}

func (m Model) quit() (Model, tea.Cmd) {
	m.taskForm.Reset()
	return m, tea.Quit
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (Model, tea.Cmd) {
	switch cmd {
	case "dashboard", "home":
		m.detail.Clear()
		m.currentView = ViewDashboard
		return m, nil
	case "new task", "task":
		m.currentView = ViewDashboard
		return m.openTaskForm()
	case "team":
		m.currentView = ViewDashboard
		return m.openTeam()
	case "notifications", "inbox":
		m.currentView = ViewDashboard
		return m.openNotifications()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case "logout":
		return m.logout()
	case "quit", "q":
		return m.quit()
	default:
		return m, toast.ShowError(fmt.Sprintf("未知命令: %s", cmd))
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.sessionSummary())
	statusBar := m.layout.RenderStatusBar(m.keyHints())
	return m.layout.RenderWithFrame(header, m.renderContent(), m.toast.View(), statusBar)
}

func (m Model) headerTitle() string {
	switch m.currentView {
	case ViewLogin:
		return "生产任务管理"
	case ViewTaskForm:
		return "发布新任务"
	case ViewTeam:
		return "团队管理"
	case ViewNotifications:
		return "通知中心"
	default:
		return "工作台"
	}
}

func (m Model) sessionSummary() string {
	u := m.gate.Current()
	if u == nil {
		return ""
	}
	viewName := "员工视图"
	if u.IsAdmin() {
		viewName = "管理员视图"
	}
	summary := fmt.Sprintf("%s · %s", u.Name, viewName)
	if m.unread > 0 {
		summary = fmt.Sprintf("🔔 %d  %s", m.unread, summary)
	}
	return summary
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.login.View()
	case ViewDashboard:
		return m.dashboard.View()
	case ViewDetail:
		return m.detail.View()
	case ViewTaskForm:
		return m.taskForm.View()
	case ViewTeam:
		return m.team.View()
	case ViewNotifications:
		return m.notifications.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewConfirm:
		return m.confirm.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		if m.login.InPasswordEntry() {
			return "enter 登录 | esc 返回"
		}
		return "j/k 选择 | enter 确认 | q 退出"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc 返回 | f 反馈 | j/k 滚动"
	case ViewTaskForm:
		return "enter 提交 | ctrl+r AI 完善 | esc 取消"
	case ViewTeam:
		return "a 添加 | v 密码 | d 删除 | esc 返回"
	case ViewNotifications:
		return "enter 查看任务 | esc 返回"
	case ViewConfirm:
		return "←/→ 选择 | enter 确认 | esc 取消"
	}

	if u := m.gate.Current(); u != nil && u.IsAdmin() {
		return "q 退出 | ? 帮助 | n 发布任务 | t 团队 | b 通知 | d 删除 | / 搜索 | L 退出登录"
	}
	return "q 退出 | ? 帮助 | x 完成 | b 通知 | / 搜索 | L 退出登录"
}
