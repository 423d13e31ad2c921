// Package secondary defines the secondary ports (driven adapters) for
// the application. These are the interfaces through which the
// application drives external systems.
package secondary

import (
	"context"
	"time"
)

// ConversationRepository defines the secondary port for conversation
// persistence. All writes for a single conversation are atomic with
// respect to concurrent readers of that conversation.
type ConversationRepository interface {
	// Ensure retrieves the conversation, creating it when absent.
	// Idempotent.
	Ensure(ctx context.Context, id string) (*ConversationRecord, error)

	// GetByID retrieves a conversation by its ID.
	GetByID(ctx context.Context, id string) (*ConversationRecord, error)

	// List retrieves conversations ordered by recency (updated_at desc).
	List(ctx context.Context, filters ConversationFilters) ([]*ConversationRecord, error)

	// Touch bumps the conversation's updated_at.
	Touch(ctx context.Context, id string) error

	// ApplyAnalysis updates title and tags from an analysis outcome.
	// Empty title leaves the existing title untouched; nil tags leave
	// the existing tags untouched.
	ApplyAnalysis(ctx context.Context, id, title string, tags []string) error

	// Delete removes a conversation. Messages, analysis results and the
	// pending task cascade.
	Delete(ctx context.Context, id string) error
}

// ConversationRecord represents a conversation as stored in persistence.
type ConversationRecord struct {
	ID        string
	Title     string
	Summary   string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationFilters contains filter options for querying conversations.
type ConversationFilters struct {
	Limit int
}

// MessageRepository defines the secondary port for message persistence.
type MessageRepository interface {
	// Append durably appends a message and bumps the conversation's
	// updated_at in the same transaction. Insertion order is preserved
	// on reload.
	Append(ctx context.Context, message *MessageRecord) error

	// UpdateText replaces a message's text. Used only while a streamed
	// response is being assembled.
	UpdateText(ctx context.Context, id, text string) error

	// LinkAnalysis attaches an analysis result to a message.
	LinkAnalysis(ctx context.Context, messageID, analysisID string) error

	// ListByConversation returns the conversation's messages in
	// insertion order.
	ListByConversation(ctx context.Context, conversationID string) ([]*MessageRecord, error)
}

// MessageRecord represents a message as stored in persistence.
type MessageRecord struct {
	ID             string
	ConversationID string
	Text           string
	SentByUser     bool
	CommandKey     string
	AnalysisID     string
	CreatedAt      time.Time
}

// PendingTaskRepository defines the secondary port for pending-task
// persistence. The storage layer enforces at most one task per
// conversation via a unique index on conversation_id.
type PendingTaskRepository interface {
	// Upsert creates the conversation's pending task or overwrites the
	// existing one, resetting status to loading and clearing any prior
	// error. Returns the stored record.
	Upsert(ctx context.Context, task *PendingTaskRecord) (*PendingTaskRecord, error)

	// MarkError transitions the task to error status with a message.
	MarkError(ctx context.Context, taskID, message string) error

	// Clear deletes the task (successful completion).
	Clear(ctx context.Context, taskID string) error

	// FetchByConversation returns the conversation's pending task, or
	// nil when there is none.
	FetchByConversation(ctx context.Context, conversationID string) (*PendingTaskRecord, error)
}

// PendingTaskRecord represents a pending task as stored in persistence.
type PendingTaskRecord struct {
	ID             string
	ConversationID string
	CommandKey     string
	Status         string // "loading" | "error"
	ErrorMessage   string
	CreatedAt      time.Time
}

// AnalysisRepository defines the secondary port for analysis-result
// persistence.
type AnalysisRepository interface {
	// Save persists an analysis result.
	Save(ctx context.Context, record *AnalysisRecord) error

	// GetByID retrieves an analysis result by its ID.
	GetByID(ctx context.Context, id string) (*AnalysisRecord, error)

	// ListByConversation returns a conversation's analysis results in
	// creation order.
	ListByConversation(ctx context.Context, conversationID string) ([]*AnalysisRecord, error)
}

// AnalysisRecord represents an analysis result as stored in
// persistence. Payload is the JSON-encoded models.Analysis.
type AnalysisRecord struct {
	ID             string
	ConversationID string
	MessageID      string
	Payload        string
	CreatedAt      time.Time
}
