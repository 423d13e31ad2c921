// Package cli implements adapters that translate CLI operations to
// service calls and service events to terminal output.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/example/thoughtstream/internal/ports/primary"
)

var (
	userPrefix  = color.New(color.FgCyan, color.Bold).SprintFunc()
	replyPrefix = color.New(color.FgGreen, color.Bold).SprintFunc()
	labelColor  = color.New(color.FgYellow).SprintFunc()
	errorColor  = color.New(color.FgRed).SprintFunc()
	dimColor    = color.New(color.Faint).SprintFunc()
)

// SessionAdapter is a thin adapter that translates chat input to
// SessionService calls and renders observer events to the terminal.
// It depends only on the SessionService interface, enabling easy
// testing with mocks.
type SessionAdapter struct {
	service primary.SessionService
	out     io.Writer

	mu       sync.Mutex
	lastID   string // assistant message currently being streamed
	rendered int    // bytes of that message already written
}

// NewSessionAdapter creates a new SessionAdapter with the given service.
func NewSessionAdapter(service primary.SessionService, out io.Writer) *SessionAdapter {
	return &SessionAdapter{service: service, out: out}
}

// Attach binds to a conversation and renders its restored history.
func (a *SessionAdapter) Attach(ctx context.Context, conversationID string) error {
	if err := a.service.Attach(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to attach to conversation: %w", err)
	}
	for _, m := range a.service.Messages(conversationID) {
		a.renderMessage(m)
	}
	a.renderStatus(a.service.Status(conversationID))
	return nil
}

// Submit sends user text. Validation failures are rendered, not
// returned: from the chat surface they are conversation, not errors.
func (a *SessionAdapter) Submit(ctx context.Context, conversationID, text string) error {
	err := a.service.SubmitText(ctx, conversationID, text)
	if _, ok := err.(*primary.ValidationError); ok {
		return nil
	}
	return err
}

// Retry re-issues the conversation's failed command.
func (a *SessionAdapter) Retry(ctx context.Context, conversationID string) error {
	err := a.service.Retry(ctx, conversationID)
	if _, ok := err.(*primary.ValidationError); ok {
		fmt.Fprintln(a.out, dimColor("Nothing to retry."))
		return nil
	}
	return err
}

// MessagesChanged renders newly appended messages, streaming the text
// of the message under assembly in place.
func (a *SessionAdapter) MessagesChanged(_ string, messages []primary.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.SentByUser {
		// The user's own line is echoed by the prompt already.
		a.lastID = ""
		return
	}

	if last.ID != a.lastID {
		a.lastID = last.ID
		a.rendered = 0
		fmt.Fprintf(a.out, "%s ", replyPrefix("thoughtstream>"))
	}
	if a.rendered < len(last.Text) {
		fmt.Fprint(a.out, last.Text[a.rendered:])
		a.rendered = len(last.Text)
	}

	if last.Analysis != nil && last.Analysis.SuggestedTopic != "" {
		fmt.Fprintf(a.out, "\n%s\n", dimColor("topic: "+last.Analysis.SuggestedTopic))
	}
}

// StatusChanged renders the system status line.
func (a *SessionAdapter) StatusChanged(_ string, status primary.SystemStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.renderStatus(status)
}

// Notice renders a transient notice.
func (a *SessionAdapter) Notice(_ string, text string) {
	fmt.Fprintf(a.out, "%s\n", dimColor("notice: "+text))
}

func (a *SessionAdapter) renderStatus(status primary.SystemStatus) {
	switch status.Kind {
	case primary.StatusLoading:
		fmt.Fprintf(a.out, "%s\n", labelColor(fmt.Sprintf("⏳ %s…", status.Label)))
	case primary.StatusError:
		fmt.Fprintf(a.out, "\n%s\n%s\n",
			errorColor(fmt.Sprintf("✗ %s failed: %s", status.Label, status.ErrorMessage)),
			dimColor("Type /retry to try again."))
	case primary.StatusIdle:
		if a.lastID != "" {
			fmt.Fprintln(a.out)
			a.lastID = ""
		}
	}
}

func (a *SessionAdapter) renderMessage(m primary.Message) {
	switch {
	case m.SentByUser && m.IsCommand():
		fmt.Fprintf(a.out, "%s %s\n", userPrefix("you>"), labelColor(m.CommandLabel))
	case m.SentByUser:
		fmt.Fprintf(a.out, "%s %s\n", userPrefix("you>"), m.Text)
	default:
		fmt.Fprintf(a.out, "%s %s\n", replyPrefix("thoughtstream>"), strings.TrimRight(m.Text, "\n"))
	}
}
