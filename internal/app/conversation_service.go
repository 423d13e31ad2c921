package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/thoughtstream/internal/command"
	"github.com/example/thoughtstream/internal/models"
	"github.com/example/thoughtstream/internal/ports/primary"
	"github.com/example/thoughtstream/internal/ports/secondary"
)

// ConversationServiceImpl implements the ConversationService interface.
type ConversationServiceImpl struct {
	conversationRepo secondary.ConversationRepository
	messageRepo      secondary.MessageRepository
	analysisRepo     secondary.AnalysisRepository
	logger           *zap.Logger
}

// NewConversationService creates a new ConversationService with
// injected dependencies.
func NewConversationService(
	conversationRepo secondary.ConversationRepository,
	messageRepo secondary.MessageRepository,
	analysisRepo secondary.AnalysisRepository,
	logger *zap.Logger,
) *ConversationServiceImpl {
	return &ConversationServiceImpl{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		analysisRepo:     analysisRepo,
		logger:           logger,
	}
}

// ListConversations returns conversations ordered by recency, most
// recently updated first. limit <= 0 means no limit.
func (s *ConversationServiceImpl) ListConversations(ctx context.Context, limit int) ([]*primary.ConversationSummary, error) {
	records, err := s.conversationRepo.List(ctx, secondary.ConversationFilters{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]*primary.ConversationSummary, 0, len(records))
	for _, record := range records {
		summary := summaryFromRecord(record)
		if summary.Body == "" {
			body, err := s.firstUserText(ctx, record.ID)
			if err != nil {
				return nil, err
			}
			summary.Body = body
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetConversation retrieves a conversation with messages and analyses.
func (s *ConversationServiceImpl) GetConversation(ctx context.Context, id string) (*primary.ConversationDetail, error) {
	record, err := s.conversationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	messageRecords, err := s.messageRepo.ListByConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	analysisRecords, err := s.analysisRepo.ListByConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}

	analyses := make(map[string]*models.Analysis, len(analysisRecords))
	ordered := make([]*models.Analysis, 0, len(analysisRecords))
	for _, ar := range analysisRecords {
		var analysis models.Analysis
		if err := json.Unmarshal([]byte(ar.Payload), &analysis); err != nil {
			s.logger.Warn("skipping undecodable analysis payload",
				zap.String("conversation", id),
				zap.String("analysis", ar.ID))
			continue
		}
		analyses[ar.ID] = &analysis
		ordered = append(ordered, &analysis)
	}

	detail := &primary.ConversationDetail{
		Summary:  *summaryFromRecord(record),
		Analyses: ordered,
	}
	for _, mr := range messageRecords {
		view := primary.Message{
			ID:         mr.ID,
			Text:       mr.Text,
			SentByUser: mr.SentByUser,
			CommandKey: mr.CommandKey,
		}
		if mr.CommandKey != "" {
			view.CommandLabel = command.DisplayName(mr.CommandKey)
		}
		if mr.AnalysisID != "" {
			view.Analysis = analyses[mr.AnalysisID]
		}
		if detail.Summary.Body == "" && mr.SentByUser && mr.CommandKey == "" {
			detail.Summary.Body = firstLineOf(mr.Text)
		}
		detail.Messages = append(detail.Messages, view)
	}
	return detail, nil
}

// DeleteConversation removes a conversation; messages, analysis results
// and any pending task cascade with it.
func (s *ConversationServiceImpl) DeleteConversation(ctx context.Context, id string) error {
	if err := s.conversationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	s.logger.Info("conversation deleted", zap.String("conversation", id))
	return nil
}

// firstUserText returns the first plain (non-command) user message's
// first line, as the listing body fallback.
func (s *ConversationServiceImpl) firstUserText(ctx context.Context, conversationID string) (string, error) {
	records, err := s.messageRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}
	for _, r := range records {
		if r.SentByUser && r.CommandKey == "" && strings.TrimSpace(r.Text) != "" {
			return firstLineOf(r.Text), nil
		}
	}
	return "", nil
}

func summaryFromRecord(record *secondary.ConversationRecord) *primary.ConversationSummary {
	conv := models.Conversation{ID: record.ID, Title: record.Title}
	return &primary.ConversationSummary{
		ID:        record.ID,
		Title:     conv.DisplayTitle(),
		Body:      record.Summary,
		Tags:      record.Tags,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func firstLineOf(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
