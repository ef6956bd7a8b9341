package model

import "time"

// Notification is a per-recipient record of a task lifecycle event.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// UserID is the recipient.
	UserID string `json:"userId"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// TaskID links this notification to the originating task, if any.
	TaskID string `json:"taskId,omitempty"`

	// Timestamp is the creation time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Read indicates whether the recipient has opened the notification center
	// since this notification arrived.
	Read bool `json:"read"`
}

// Time returns Timestamp as a time.Time.
func (n Notification) Time() time.Time { return time.UnixMilli(n.Timestamp) }
