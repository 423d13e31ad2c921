package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/thoughtstream/internal/adapters/sqlite"
	"github.com/example/thoughtstream/internal/ports/secondary"
)

func TestMessageRepository_AppendPreservesOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMessageRepository(db)
	ctx := context.Background()
	seedConversation(t, db, "conv-001")

	texts := []string{"first", "second", "third"}
	for i, text := range texts {
		err := repo.Append(ctx, &secondary.MessageRecord{
			ID:             "msg-" + text,
			ConversationID: "conv-001",
			Text:           text,
			SentByUser:     i%2 == 0,
		})
		if err != nil {
			t.Fatalf("Append %q failed: %v", text, err)
		}
	}

	records, err := repo.ListByConversation(ctx, "conv-001")
	if err != nil {
		t.Fatalf("ListByConversation failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(records))
	}
	for i, text := range texts {
		if records[i].Text != text {
			t.Errorf("position %d: expected %q, got %q", i, text, records[i].Text)
		}
	}
	if !records[0].SentByUser || records[1].SentByUser {
		t.Error("sent_by_user not round-tripped")
	}
}

func TestMessageRepository_AppendTouchesConversation(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMessageRepository(db)
	ctx := context.Background()

	_, err := db.Exec("INSERT INTO conversations (id, tags, updated_at) VALUES ('conv-001', '[]', '2020-01-01 00:00:00')")
	if err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}

	err = repo.Append(ctx, &secondary.MessageRecord{
		ID: "msg-001", ConversationID: "conv-001", Text: "hello", SentByUser: true,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var updatedAt time.Time
	if err := db.QueryRow("SELECT updated_at FROM conversations WHERE id = 'conv-001'").Scan(&updatedAt); err != nil {
		t.Fatalf("failed to read updated_at: %v", err)
	}
	if updatedAt.Year() == 2020 {
		t.Error("expected append to bump conversation updated_at")
	}
}

func TestMessageRepository_AppendMissingConversation(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMessageRepository(db)

	err := repo.Append(context.Background(), &secondary.MessageRecord{
		ID: "msg-001", ConversationID: "missing", Text: "hello",
	})
	if err == nil {
		t.Fatal("expected foreign key violation for missing conversation")
	}
}

func TestMessageRepository_UpdateText(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMessageRepository(db)
	ctx := context.Background()
	seedConversation(t, db, "conv-001")
	seedMessage(t, db, "msg-001", "conv-001", "", false, "")

	// Simulate streamed assembly: text grows fragment by fragment.
	for _, text := range []string{"Here", "Here is", "Here is advice"} {
		if err := repo.UpdateText(ctx, "msg-001", text); err != nil {
			t.Fatalf("UpdateText failed: %v", err)
		}
	}

	records, err := repo.ListByConversation(ctx, "conv-001")
	if err != nil {
		t.Fatalf("ListByConversation failed: %v", err)
	}
	if records[0].Text != "Here is advice" {
		t.Errorf("expected final text, got %q", records[0].Text)
	}
}

func TestMessageRepository_UpdateTextNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMessageRepository(db)

	if err := repo.UpdateText(context.Background(), "missing", "text"); err == nil {
		t.Fatal("expected error updating missing message")
	}
}

func TestMessageRepository_LinkAnalysis(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewMessageRepository(db)
	ctx := context.Background()
	seedConversation(t, db, "conv-001")
	seedMessage(t, db, "msg-001", "conv-001", "reply", false, "")

	if _, err := db.Exec(
		"INSERT INTO analysis_results (id, conversation_id, message_id, payload) VALUES ('ana-001', 'conv-001', 'msg-001', '{}')"); err != nil {
		t.Fatalf("failed to seed analysis: %v", err)
	}

	if err := repo.LinkAnalysis(ctx, "msg-001", "ana-001"); err != nil {
		t.Fatalf("LinkAnalysis failed: %v", err)
	}

	records, err := repo.ListByConversation(ctx, "conv-001")
	if err != nil {
		t.Fatalf("ListByConversation failed: %v", err)
	}
	if records[0].AnalysisID != "ana-001" {
		t.Errorf("expected analysis link, got %q", records[0].AnalysisID)
	}
}
