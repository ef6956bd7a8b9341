// Package notify builds notification records for task lifecycle events and
// raises best-effort OS alerts for fresh ones.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/prodtask/internal/model"
)

// Dispatcher constructs notifications according to the routing rules:
// assignment goes to the assignee, completion to the creator, and feedback
// to whichever party did not write it.
type Dispatcher struct {
	now   func() time.Time
	newID func() string
}

// NewDispatcher returns a Dispatcher stamping records with now and ids from newID.
// Nil arguments select time.Now and random UUIDs.
func NewDispatcher(now func() time.Time, newID func() string) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}
	return &Dispatcher{now: now, newID: newID}
}

func (d *Dispatcher) build(recipient, taskID, message string) model.Notification {
	return model.Notification{
		ID:        d.newID(),
		UserID:    recipient,
		Message:   message,
		TaskID:    taskID,
		Timestamp: d.now().UnixMilli(),
	}
}

// TaskAssigned notifies the assignee of a newly created task.
func (d *Dispatcher) TaskAssigned(task model.Task) model.Notification {
	return d.build(task.AssignedToID, task.ID, fmt.Sprintf("新任务分配: %s", task.Title))
}

// TaskCompleted notifies the task's creator that actor finished it.
func (d *Dispatcher) TaskCompleted(task model.Task, actor model.User) model.Notification {
	return d.build(task.CreatedBy, task.ID,
		fmt.Sprintf("员工 %s 完成了任务: %s", actor.Name, task.Title))
}

// FeedbackPosted notifies the other party of new feedback by author.
// It reports false when the task has no one to route to.
func (d *Dispatcher) FeedbackPosted(task model.Task, author model.User) (model.Notification, bool) {
	var recipient, msg string
	if author.Role == model.RoleEmployee {
		recipient = task.CreatedBy
		msg = fmt.Sprintf("员工 %s 对任务 \"%s\" 进行了反馈", author.Name, task.Title)
	} else {
		recipient = task.AssignedToID
		msg = fmt.Sprintf("管理员对任务 \"%s\" 进行了回复", task.Title)
	}
	if recipient == "" {
		return model.Notification{}, false
	}
	return d.build(recipient, task.ID, msg), true
}
