package models

import "time"

// Pending task statuses. A task in status "loading" that outlived its
// process is surfaced as failed on reattach; the stream is gone.
const (
	TaskStatusLoading = "loading"
	TaskStatusError   = "error"
)

// PendingTask is the durable record of an in-flight or failed command
// execution. At most one exists per conversation at any time.
type PendingTask struct {
	ID             string
	ConversationID string
	CommandKey     string
	Status         string // "loading" | "error"
	ErrorMessage   string
	CreatedAt      time.Time
}
