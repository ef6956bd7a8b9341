package model

import "time"

// Priority is the urgency assigned to a task by its creator.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

// DueDateLayout is the calendar date format used for Task.DueDate.
const DueDateLayout = "2006-01-02"

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is a unit of production work assigned to one employee.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`

	// AssignedToID is the user id of the employee doing the work.
	AssignedToID string `json:"assignedToId"`

	// CreatedBy is the user id of the administrator who created the task.
	CreatedBy string `json:"createdBy"`

	// DueDate is a calendar date in DueDateLayout.
	DueDate string `json:"dueDate"`

	Status TaskStatus `json:"status"`

	// CreatedAt is the creation time in Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`

	// Feedback is the append-only remark thread, oldest first.
	Feedback []TaskFeedback `json:"feedback"`
}

// IsCompleted reports whether the task has reached COMPLETED.
func (t Task) IsCompleted() bool { return t.Status == StatusCompleted }

// Created returns CreatedAt as a time.Time.
func (t Task) Created() time.Time { return time.UnixMilli(t.CreatedAt) }

// IsOverdue reports whether the due date has passed and the task is still open.
func (t Task) IsOverdue(now time.Time) bool {
	due, err := time.ParseInLocation(DueDateLayout, t.DueDate, now.Location())
	if err != nil {
		return false
	}
	return !t.IsCompleted() && now.After(due.AddDate(0, 0, 1))
}

// TaskFeedback is a single remark in a task's feedback thread.
// Its author name is captured at creation and never refreshed.
type TaskFeedback struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns Timestamp as a time.Time.
func (f TaskFeedback) Time() time.Time { return time.UnixMilli(f.Timestamp) }
