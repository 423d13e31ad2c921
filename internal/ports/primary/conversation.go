package primary

import (
	"context"
	"time"

	"github.com/example/thoughtstream/internal/models"
)

// ConversationService defines the primary port for conversation
// listing and lifecycle operations.
type ConversationService interface {
	// ListConversations returns conversations ordered by recency.
	ListConversations(ctx context.Context, limit int) ([]*ConversationSummary, error)

	// GetConversation retrieves one conversation with its messages and
	// analysis results.
	GetConversation(ctx context.Context, id string) (*ConversationDetail, error)

	// DeleteConversation removes a conversation and everything it owns.
	DeleteConversation(ctx context.Context, id string) error
}

// ConversationSummary is the listing view of a conversation.
type ConversationSummary struct {
	ID        string
	Title     string // display title, never empty
	Body      string // summary, falling back to the first plain user message
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationDetail is the full view of a conversation.
type ConversationDetail struct {
	Summary  ConversationSummary
	Messages []Message
	Analyses []*models.Analysis
}
