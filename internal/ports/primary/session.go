// Package primary defines the primary ports (driving adapters) for the
// application: the interfaces a UI collaborator consumes.
package primary

import (
	"context"

	"github.com/example/thoughtstream/internal/models"
)

// SessionService is the session command orchestrator's boundary. A UI
// submits user text and renders the observable message list plus a
// single system status; everything else happens behind this port.
type SessionService interface {
	// Attach binds to a conversation, loading its persisted history and
	// re-deriving execution state from the stored pending task. A
	// loading task left behind by a dead process is surfaced as failed
	// and retryable, never silently resumed. Idempotent.
	Attach(ctx context.Context, conversationID string) error

	// SubmitText appends a user message. Plain text ends the turn;
	// text resolving to a command starts an execution unless one is
	// already in flight (in which case the command part is a no-op).
	// An empty eligible input window rejects the command with a
	// ValidationError before any pending task is created.
	SubmitText(ctx context.Context, conversationID, text string) error

	// Retry re-issues the conversation's failed command with input
	// recomputed from current history. Valid only in the failed state.
	Retry(ctx context.Context, conversationID string) error

	// Cancel best-effort cancels an in-flight execution. The pending
	// task record is kept so the failure stays retryable.
	Cancel(conversationID string)

	// Messages returns the current in-memory message list, oldest first.
	Messages(conversationID string) []Message

	// Status returns the conversation's current system status.
	Status(conversationID string) SystemStatus

	// Subscribe registers an observer for the conversation. The
	// returned function unsubscribes it.
	Subscribe(conversationID string, observer SessionObserver) func()

	// Detach releases the conversation's in-memory state. Any in-flight
	// execution is canceled best-effort; persisted state is untouched.
	Detach(conversationID string)
}

// Message is the UI-facing view of one conversation turn.
type Message struct {
	ID           string
	Text         string
	SentByUser   bool
	CommandKey   string // non-empty when the message invoked a command
	CommandLabel string
	Analysis     *models.Analysis // linked result on assistant messages
}

// IsCommand reports whether the message invoked a command.
func (m Message) IsCommand() bool {
	return m.CommandKey != ""
}

// StatusKind enumerates the system status states.
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusLoading
	StatusError
)

// SystemStatus is the single status indicator the orchestrator
// publishes: idle, loading with the executing command's display label,
// or error with the failed command's display label.
type SystemStatus struct {
	Kind         StatusKind
	Label        string // command display label for Loading/Error
	ErrorMessage string // set for Error
}

// SessionObserver receives orchestrator events for one conversation.
// Callbacks are invoked sequentially from the conversation's owner;
// implementations must not call back into the service from within them.
type SessionObserver interface {
	// MessagesChanged delivers the full ordered message list after an
	// append or a streamed-text update.
	MessagesChanged(conversationID string, messages []Message)

	// StatusChanged delivers the new system status.
	StatusChanged(conversationID string, status SystemStatus)

	// Notice delivers a transient user-visible message (store failures
	// and the like). Display policy is the UI's concern.
	Notice(conversationID string, text string)
}
