package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/notify"
	"github.com/nhle/prodtask/internal/state"
	"github.com/nhle/prodtask/internal/theme"
)

// mutationDoneMsg is sent after a state change has been persisted.
type mutationDoneMsg struct {
	notice string
	err    error
	// invalid is shown instead of a generic failure for validation errors.
	invalid string
}

// permissionMsg carries the answer to an alert permission request.
type permissionMsg struct {
	permission notify.Permission
}

type mutation func(ctx context.Context) (string, error)

// mutate runs fn off the UI loop and reports its outcome.
func (m *Model) mutate(op string, invalid string, fn mutation) tea.Cmd {
	log := m.log
	return func() tea.Msg {
		notice, err := fn(context.Background())
		if err != nil {
			log.Warn("mutation failed", zap.String("op", op), zap.Error(err))
		}
		return mutationDoneMsg{notice: notice, err: err, invalid: invalid}
	}
}

// failureText maps a mutation error to the toast shown to the user.
func failureText(msg mutationDoneMsg) string {
	switch {
	case state.IsValidation(msg.err) && msg.invalid != "":
		return msg.invalid
	case errors.Is(msg.err, state.ErrProtectedUser):
		return "管理员账号不可删除"
	default:
		return "操作失败，请重试"
	}
}

func (m *Model) createTask(in state.TaskInput) tea.Cmd {
	mgr := m.manager
	return m.mutate("create_task", "请填写所有必填项", func(ctx context.Context) (string, error) {
		if _, err := mgr.CreateTask(ctx, in); err != nil {
			return "", err
		}
		return "任务发布成功", nil
	})
}

func (m *Model) removeTask(id string) tea.Cmd {
	mgr := m.manager
	return m.mutate("delete_task", "", func(ctx context.Context) (string, error) {
		if err := mgr.DeleteTask(ctx, id); err != nil {
			return "", err
		}
		return "任务已删除", nil
	})
}

func (m *Model) setStatus(id string, status model.TaskStatus, actor model.User) tea.Cmd {
	mgr := m.manager
	return m.mutate("set_status", "", func(ctx context.Context) (string, error) {
		if err := mgr.SetTaskStatus(ctx, id, status, actor); err != nil {
			return "", err
		}
		return fmt.Sprintf("任务标记为: %s", theme.StatusLabel(status)), nil
	})
}

func (m *Model) addFeedback(id string, author model.User, content string) tea.Cmd {
	mgr := m.manager
	return m.mutate("add_feedback", "", func(ctx context.Context) (string, error) {
		if err := mgr.AddFeedback(ctx, id, author, content); err != nil {
			return "", err
		}
		return "反馈已发送", nil
	})
}

func (m *Model) createUser(name, password string) tea.Cmd {
	mgr := m.manager
	return m.mutate("create_user", "请输入员工姓名和密码", func(ctx context.Context) (string, error) {
		u, err := mgr.CreateUser(ctx, name, password)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("员工 \"%s\" 已添加", u.Name), nil
	})
}

func (m *Model) removeUser(id string) tea.Cmd {
	mgr := m.manager
	return m.mutate("delete_user", "", func(ctx context.Context) (string, error) {
		if err := mgr.DeleteUser(ctx, id); err != nil {
			return "", err
		}
		return "员工账号已删除", nil
	})
}

func (m *Model) markAllRead(userID string) tea.Cmd {
	mgr := m.manager
	return m.mutate("mark_all_read", "", func(ctx context.Context) (string, error) {
		return "", mgr.MarkAllRead(ctx, userID)
	})
}

// runPending executes a confirmed destructive action.
func (m *Model) runPending(p pending) tea.Cmd {
	switch p.kind {
	case pendingDeleteTask:
		return m.removeTask(p.id)
	case pendingDeleteUser:
		return m.removeUser(p.id)
	default:
		return nil
	}
}

// requestPermission asks for alert permission once per session when the
// user has not answered yet.
func (m *Model) requestPermission() tea.Cmd {
	alerter := m.alerter
	if alerter == nil {
		return nil
	}
	return func() tea.Msg {
		return permissionMsg{permission: alerter.RequestPermission(context.Background())}
	}
}

// checkAlert raises an OS alert for the newest visible notification if it
// is fresh and unread.
func (m *Model) checkAlert(visible []model.Notification) tea.Cmd {
	alerter := m.alerter
	if alerter == nil || len(visible) == 0 {
		return nil
	}
	return func() tea.Msg {
		alerter.Check(context.Background(), visible)
		return nil
	}
}
