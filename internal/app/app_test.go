package app

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/prodtask/internal/access"
	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/notify"
	"github.com/nhle/prodtask/internal/state"
	"github.com/nhle/prodtask/internal/ui/confirm"
	"github.com/nhle/prodtask/internal/ui/dashboard"
	"github.com/nhle/prodtask/internal/ui/login"
	"github.com/nhle/prodtask/internal/ui/taskform"
	"github.com/nhle/prodtask/internal/ui/team"
	"github.com/nhle/prodtask/tests/testutil"
)

type fakeSink struct {
	permission notify.Permission
	shown      []string
}

func (f *fakeSink) Permission() notify.Permission { return f.permission }

func (f *fakeSink) RequestPermission(context.Context) notify.Permission {
	f.permission = notify.PermissionGranted
	return f.permission
}

func (f *fakeSink) Show(_ context.Context, _, body string) error {
	f.shown = append(f.shown, body)
	return nil
}

func newApp(t *testing.T, sink notify.Sink) (Model, *state.Manager) {
	t.Helper()
	mgr, err := state.Open(context.Background(), testutil.NewTestStore(t))
	require.NoError(t, err)

	var alerter *notify.Alerter
	if sink != nil {
		alerter = notify.NewAlerter(sink, 5*time.Second, nil)
	}
	m := New(mgr, nil, alerter, time.Second, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), mgr
}

func signIn(t *testing.T, m Model, id, password string) Model {
	t.Helper()
	u, ok := m.manager.User(id)
	require.True(t, ok)
	m.gate.Select(u)
	m.gate.Input(password)
	require.NoError(t, m.gate.Submit())
	return send(m, login.LoggedInMsg{User: u})
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func sendCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoginShowsRoleScopedDashboard(t *testing.T) {
	m, mgr := newApp(t, nil)
	_, err := mgr.CreateTask(context.Background(), state.TaskInput{
		Title: "另一项", AssigneeID: "u1", DueDate: "2024-02-01", CreatorID: "u1",
	})
	require.NoError(t, err)

	m = signIn(t, m, "u2", "123")

	assert.Equal(t, ViewDashboard, m.currentView)
	assert.Contains(t, m.sessionSummary(), "员工视图")
	task, ok := m.dashboard.SelectedTask()
	require.True(t, ok)
	assert.Equal(t, "t1", task.ID)
}

func TestSubmitTaskRecordsCreator(t *testing.T) {
	m, mgr := newApp(t, nil)
	m = signIn(t, m, "u1", "admin")

	m, cmd := sendCmd(t, m, taskform.SubmitMsg{Input: state.TaskInput{
		Title: "检查阀门", AssigneeID: "u2", DueDate: "2024-01-01",
	}})
	require.NotNil(t, cmd)
	done, ok := cmd().(mutationDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.Equal(t, "任务发布成功", done.notice)
	assert.Equal(t, ViewDashboard, m.currentView)

	tasks := mgr.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "u1", tasks[1].CreatedBy)
}

func TestEmployeeSubmitIgnored(t *testing.T) {
	m, mgr := newApp(t, nil)
	m = signIn(t, m, "u2", "123")

	_, cmd := sendCmd(t, m, taskform.SubmitMsg{Input: state.TaskInput{
		Title: "x", AssigneeID: "u2", DueDate: "2024-01-01",
	}})
	assert.Nil(t, cmd)
	assert.Len(t, mgr.Tasks(), 1)
}

func TestDeleteTaskNeedsConfirmation(t *testing.T) {
	m, mgr := newApp(t, nil)
	m = signIn(t, m, "u1", "admin")

	m = send(m, dashboard.DeleteTaskMsg{TaskID: "t1", Title: "组装"})
	assert.Equal(t, ViewConfirm, m.currentView)
	assert.True(t, m.pending.active())
	assert.Len(t, mgr.Tasks(), 1)

	m, cmd := sendCmd(t, m, confirm.ConfirmedMsg{})
	assert.Equal(t, ViewDashboard, m.currentView)
	assert.False(t, m.pending.active())
	require.NotNil(t, cmd)
	done := cmd().(mutationDoneMsg)
	assert.Equal(t, "任务已删除", done.notice)
	assert.Empty(t, mgr.Tasks())
}

func TestCancelledConfirmationKeepsTask(t *testing.T) {
	m, mgr := newApp(t, nil)
	m = signIn(t, m, "u1", "admin")

	m = send(m, dashboard.DeleteTaskMsg{TaskID: "t1"})
	m, cmd := sendCmd(t, m, confirm.CancelledMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewDashboard, m.currentView)
	assert.Len(t, mgr.Tasks(), 1)
}

func TestEmployeeCannotReachAdminViews(t *testing.T) {
	m, _ := newApp(t, nil)
	m = signIn(t, m, "u2", "123")

	m = send(m, keyPress("n"))
	assert.Equal(t, ViewDashboard, m.currentView)
	m = send(m, keyPress("t"))
	assert.Equal(t, ViewDashboard, m.currentView)
	m = send(m, dashboard.DeleteTaskMsg{TaskID: "t1"})
	assert.Equal(t, ViewDashboard, m.currentView)
}

func TestAdminOpensTaskForm(t *testing.T) {
	m, _ := newApp(t, nil)
	m = signIn(t, m, "u1", "admin")

	m = send(m, keyPress("n"))
	assert.Equal(t, ViewTaskForm, m.currentView)
	assert.True(t, m.capturingInput())
}

func TestOpeningNotificationsMarksRead(t *testing.T) {
	m, mgr := newApp(t, nil)
	_, err := mgr.CreateTask(context.Background(), state.TaskInput{
		Title: "检查阀门", AssigneeID: "u2", DueDate: "2024-01-01", CreatorID: "u1",
	})
	require.NoError(t, err)

	m = signIn(t, m, "u2", "123")
	assert.Equal(t, 1, m.unread)

	m, cmd := sendCmd(t, m, keyPress("b"))
	assert.Equal(t, ViewNotifications, m.currentView)
	require.NotNil(t, cmd)
	m = send(m, cmd())
	assert.Zero(t, m.unread)
	for _, n := range mgr.Notifications() {
		assert.True(t, n.Read)
	}
}

func TestDeletedTaskClosesDetail(t *testing.T) {
	m, mgr := newApp(t, nil)
	m = signIn(t, m, "u1", "admin")

	m = send(m, dashboard.SelectedTaskMsg{TaskID: "t1"})
	require.Equal(t, ViewDetail, m.currentView)

	require.NoError(t, mgr.DeleteTask(context.Background(), "t1"))
	m = send(m, mutationDoneMsg{})
	assert.Equal(t, ViewDashboard, m.currentView)
	assert.Empty(t, m.detail.TaskID())
}

func TestEmployeeCannotOpenOthersTask(t *testing.T) {
	m, mgr := newApp(t, nil)
	task, err := mgr.CreateTask(context.Background(), state.TaskInput{
		Title: "管理员自己的任务", AssigneeID: "u1", DueDate: "2024-01-01", CreatorID: "u1",
	})
	require.NoError(t, err)
	m = signIn(t, m, "u2", "123")

	m = send(m, dashboard.SelectedTaskMsg{TaskID: task.ID})
	assert.Equal(t, ViewDashboard, m.currentView)
}

func TestLogoutReturnsToLogin(t *testing.T) {
	m, _ := newApp(t, nil)
	m = signIn(t, m, "u1", "admin")

	m = send(m, keyPress("L"))
	assert.Equal(t, ViewLogin, m.currentView)
	assert.Nil(t, m.gate.Current())
	assert.Empty(t, m.sessionSummary())
}

func TestDeletedSessionUserSignsOut(t *testing.T) {
	m, mgr := newApp(t, nil)
	m = signIn(t, m, "u2", "123")

	require.NoError(t, mgr.DeleteUser(context.Background(), "u2"))
	m = send(m, mutationDoneMsg{})
	assert.Equal(t, ViewLogin, m.currentView)
}

func TestFreshNotificationRaisesAlertOnce(t *testing.T) {
	sink := &fakeSink{permission: notify.PermissionGranted}
	m, mgr := newApp(t, sink)
	_, err := mgr.CreateTask(context.Background(), state.TaskInput{
		Title: "检查阀门", AssigneeID: "u2", DueDate: "2024-01-01", CreatorID: "u1",
	})
	require.NoError(t, err)
	m = signIn(t, m, "u2", "123")

	session, _ := mgr.User("u2")
	visible := access.VisibleNotifications(mgr.Notifications(), &session)
	for range 2 {
		cmd := m.checkAlert(visible)
		require.NotNil(t, cmd)
		cmd()
	}
	assert.Equal(t, []string{"新任务分配: 检查阀门"}, sink.shown)
}

func TestRequestPermissionOnLogin(t *testing.T) {
	sink := &fakeSink{permission: notify.PermissionDefault}
	m, _ := newApp(t, sink)

	msg := m.requestPermission()().(permissionMsg)
	assert.Equal(t, notify.PermissionGranted, msg.permission)
}

func TestFailureText(t *testing.T) {
	validation := &state.ValidationError{Fields: []string{"title"}}

	tests := []struct {
		name string
		msg  mutationDoneMsg
		want string
	}{
		{"validation with hint", mutationDoneMsg{err: validation, invalid: "请填写所有必填项"}, "请填写所有必填项"},
		{"validation without hint", mutationDoneMsg{err: validation}, "操作失败，请重试"},
		{"protected admin", mutationDoneMsg{err: state.ErrProtectedUser}, "管理员账号不可删除"},
		{"storage", mutationDoneMsg{err: errors.New("disk full")}, "操作失败，请重试"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureText(tt.msg))
		})
	}
}

func TestPendingPrompt(t *testing.T) {
	assert.Contains(t, deleteTask("t1").prompt(), "此操作无法撤销")
	assert.Contains(t, deleteUser("u2").prompt(), "员工账号")
	assert.False(t, pending{}.active())
}

func TestUnknownCommandShowsError(t *testing.T) {
	m, _ := newApp(t, nil)
	m = signIn(t, m, "u1", "admin")

	_, cmd := m.executeCommand("frobnicate")
	require.NotNil(t, cmd)
	assert.NotNil(t, cmd())
}

func TestStatusLabelInNotice(t *testing.T) {
	m, _ := newApp(t, nil)
	m = signIn(t, m, "u2", "123")
	u, _ := m.manager.User("u2")

	done := m.setStatus("t1", model.StatusCompleted, u)().(mutationDoneMsg)
	require.NoError(t, done.err)
	assert.Equal(t, "任务标记为: 已完成", done.notice)
}

func TestLoginWelcomesUser(t *testing.T) {
	m, _ := newApp(t, nil)
	m = signIn(t, m, "u2", "123")

	assert.Equal(t, "欢迎回来, 李明 (员工)", m.toast.Text())
}

func TestSecondDeleteRequestIgnoredWhileConfirming(t *testing.T) {
	m, _ := newApp(t, nil)
	m = signIn(t, m, "u1", "admin")

	m = send(m, dashboard.DeleteTaskMsg{TaskID: "t1"})
	m = send(m, team.DeleteUserMsg{UserID: "u2"})
	assert.Equal(t, deleteTask("t1"), m.pending)
	assert.Equal(t, ViewDashboard, m.previousView)
}

func TestCreateUserNoticeQuotesNameVerbatim(t *testing.T) {
	m, _ := newApp(t, nil)
	m = signIn(t, m, "u1", "admin")

	done := m.createUser("王\"芳", "pw")().(mutationDoneMsg)
	require.NoError(t, done.err)
	assert.Equal(t, "员工 \"王\"芳\" 已添加", done.notice)
}
