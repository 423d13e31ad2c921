package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/thoughtstream/internal/ports/primary"
)

// mockConversationService implements primary.ConversationService.
type mockConversationService struct {
	summaries []*primary.ConversationSummary
	detail    *primary.ConversationDetail
	err       error
	deleted   []string
}

func (m *mockConversationService) ListConversations(ctx context.Context, limit int) ([]*primary.ConversationSummary, error) {
	return m.summaries, m.err
}

func (m *mockConversationService) GetConversation(ctx context.Context, id string) (*primary.ConversationDetail, error) {
	return m.detail, m.err
}

func (m *mockConversationService) DeleteConversation(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func TestListRendersTable(t *testing.T) {
	svc := &mockConversationService{summaries: []*primary.ConversationSummary{
		{
			ID:        "conv-1",
			Title:     "Trip Planning",
			Body:      "planning a trip to Lisbon",
			Tags:      []string{"travel"},
			UpdatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
	}}
	var out bytes.Buffer
	adapter := NewConversationAdapter(svc, &out)

	if err := adapter.List(context.Background(), 0); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"conv-1", "Trip Planning", "travel", "2026-03-14"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestListEmptyShowsHint(t *testing.T) {
	var out bytes.Buffer
	adapter := NewConversationAdapter(&mockConversationService{}, &out)

	if err := adapter.List(context.Background(), 0); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !strings.Contains(out.String(), "thoughtstream chat") {
		t.Errorf("expected getting-started hint, got:\n%s", out.String())
	}
}

func TestShowRendersMessages(t *testing.T) {
	svc := &mockConversationService{detail: &primary.ConversationDetail{
		Summary: primary.ConversationSummary{Title: "Untitled Conversation"},
		Messages: []primary.Message{
			{ID: "m1", Text: "my draft", SentByUser: true},
			{ID: "m2", SentByUser: true, CommandKey: "idiomatic_english", CommandLabel: "Idiomatic English"},
			{ID: "m3", Text: "Polished draft."},
		},
	}}
	var out bytes.Buffer
	adapter := NewConversationAdapter(svc, &out)

	if err := adapter.Show(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"you> my draft", "you> [Idiomatic English]", "thoughtstream> Polished draft."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestDeleteReportsFailure(t *testing.T) {
	svc := &mockConversationService{err: errors.New("not found")}
	var out bytes.Buffer
	adapter := NewConversationAdapter(svc, &out)

	if err := adapter.Delete(context.Background(), "conv-x"); err == nil {
		t.Error("expected error from failed delete")
	}
}
