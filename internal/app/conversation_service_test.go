package app

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/example/thoughtstream/internal/models"
	"github.com/example/thoughtstream/internal/ports/secondary"
)

func newTestConversationService(store *memStore) *ConversationServiceImpl {
	return NewConversationService(store, store, analysisStore{store}, zap.NewNop())
}

func TestListConversationsBodyFallsBackToFirstUserText(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	if _, err := store.Ensure(ctx, "conv-1"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	messages := []*secondary.MessageRecord{
		{ID: "m1", ConversationID: "conv-1", Text: "💡 /summarize", SentByUser: true, CommandKey: "summarize"},
		{ID: "m2", ConversationID: "conv-1", Text: "first real thought\nsecond line", SentByUser: true},
		{ID: "m3", ConversationID: "conv-1", Text: "assistant reply"},
	}
	for _, m := range messages {
		if err := store.Append(ctx, m); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	svc := newTestConversationService(store)
	summaries, err := svc.ListConversations(ctx, 0)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].Title != "Untitled Conversation" {
		t.Errorf("expected title fallback, got %q", summaries[0].Title)
	}
	if summaries[0].Body != "first real thought" {
		t.Errorf("expected body from first plain user message, got %q", summaries[0].Body)
	}
}

func TestListConversationsPrefersStoredSummary(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	record, err := store.Ensure(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	record.Title = "Trip Planning"
	record.Summary = "planning a trip to Lisbon"

	svc := newTestConversationService(store)
	summaries, err := svc.ListConversations(ctx, 0)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if summaries[0].Title != "Trip Planning" {
		t.Errorf("expected stored title, got %q", summaries[0].Title)
	}
	if summaries[0].Body != "planning a trip to Lisbon" {
		t.Errorf("expected stored summary, got %q", summaries[0].Body)
	}
}

func TestGetConversationLinksAnalyses(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	if _, err := store.Ensure(ctx, "conv-1"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	appendRecords := []*secondary.MessageRecord{
		{ID: "m1", ConversationID: "conv-1", Text: "draft text", SentByUser: true},
		{ID: "m2", ConversationID: "conv-1", Text: "💡 /idiomatic_english", SentByUser: true, CommandKey: "idiomatic_english"},
		{ID: "m3", ConversationID: "conv-1", Text: "Polished draft.", AnalysisID: "a1"},
	}
	for _, m := range appendRecords {
		if err := store.Append(ctx, m); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	payload, err := json.Marshal(&models.Analysis{SuggestedTopic: "Drafting"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := store.Save(ctx, &secondary.AnalysisRecord{
		ID: "a1", ConversationID: "conv-1", MessageID: "m3", Payload: string(payload),
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	svc := newTestConversationService(store)
	detail, err := svc.GetConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if len(detail.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(detail.Messages))
	}
	if detail.Messages[1].CommandLabel != "Idiomatic English" {
		t.Errorf("expected command label, got %q", detail.Messages[1].CommandLabel)
	}
	if detail.Messages[2].Analysis == nil || detail.Messages[2].Analysis.SuggestedTopic != "Drafting" {
		t.Errorf("expected analysis linked to reply, got %+v", detail.Messages[2].Analysis)
	}
	if len(detail.Analyses) != 1 {
		t.Errorf("expected 1 analysis in detail, got %d", len(detail.Analyses))
	}
	if detail.Summary.Body != "draft text" {
		t.Errorf("expected body fallback in detail, got %q", detail.Summary.Body)
	}
}

func TestDeleteConversation(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	if _, err := store.Ensure(ctx, "conv-1"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	svc := newTestConversationService(store)
	if err := svc.DeleteConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	if _, err := svc.GetConversation(ctx, "conv-1"); err == nil {
		t.Error("expected error for deleted conversation")
	}
}
