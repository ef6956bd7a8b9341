// Package access derives the role-scoped views of tasks and notifications
// for the signed-in user. Every function is pure.
package access

import (
	"sort"

	"github.com/nhle/prodtask/internal/model"
)

// VisibleTasks returns every task for an administrator and only the tasks
// assigned to session for an employee. A nil session sees nothing.
func VisibleTasks(tasks []model.Task, session *model.User) []model.Task {
	if session == nil {
		return []model.Task{}
	}
	if session.Role == model.RoleAdmin {
		out := make([]model.Task, len(tasks))
		copy(out, tasks)
		return out
	}

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.AssignedToID == session.ID {
			out = append(out, t)
		}
	}
	return out
}

// Counts returns how many tasks are completed and how many are not.
// PENDING and IN_PROGRESS both count as pending.
func Counts(tasks []model.Task) (completed, pending int) {
	for _, t := range tasks {
		if t.IsCompleted() {
			completed++
		} else {
			pending++
		}
	}
	return completed, pending
}

// VisibleNotifications returns the notifications addressed to session,
// newest first. Equal timestamps keep their stored order.
func VisibleNotifications(ns []model.Notification, session *model.User) []model.Notification {
	out := make([]model.Notification, 0)
	if session == nil {
		return out
	}
	for _, n := range ns {
		if n.UserID == session.ID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// UnreadCount returns the number of unread notifications in ns.
func UnreadCount(ns []model.Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}
