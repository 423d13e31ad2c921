package models

import "time"

// Message is one turn in a conversation. Messages are append-only;
// the text of an assistant message grows while a streamed response is
// being assembled and is immutable once streaming completes.
type Message struct {
	ID         string
	Text       string
	SentByUser bool
	CommandKey string // non-empty when the message invoked a command
	AnalysisID string // set on assistant messages that carry a linked analysis
	CreatedAt  time.Time
}

// IsCommand reports whether this message invoked a command.
func (m *Message) IsCommand() bool {
	return m.CommandKey != ""
}
