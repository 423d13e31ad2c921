package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/thoughtstream/internal/adapters/sqlite"
)

func TestConversationRepository_EnsureCreates(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewConversationRepository(db)
	ctx := context.Background()

	record, err := repo.Ensure(ctx, "conv-001")
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if record.ID != "conv-001" {
		t.Errorf("expected ID conv-001, got %s", record.ID)
	}
	if record.Title != "" {
		t.Errorf("expected empty title, got %q", record.Title)
	}
	if len(record.Tags) != 0 {
		t.Errorf("expected no tags, got %v", record.Tags)
	}
}

func TestConversationRepository_EnsureIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewConversationRepository(db)
	ctx := context.Background()

	first, err := repo.Ensure(ctx, "conv-001")
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	second, err := repo.Ensure(ctx, "conv-001")
	if err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	if first.ID != second.ID || !first.CreatedAt.Equal(second.CreatedAt) {
		t.Errorf("Ensure was not idempotent: %+v vs %+v", first, second)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 conversation, got %d", count)
	}
}

func TestConversationRepository_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewConversationRepository(db)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing conversation")
	}
}

func TestConversationRepository_ApplyAnalysis(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewConversationRepository(db)
	ctx := context.Background()
	seedConversation(t, db, "conv-001")

	err := repo.ApplyAnalysis(ctx, "conv-001", "Weekend Reflections", []string{"personal", "weekend"})
	if err != nil {
		t.Fatalf("ApplyAnalysis failed: %v", err)
	}

	record, err := repo.GetByID(ctx, "conv-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.Title != "Weekend Reflections" {
		t.Errorf("expected title to be applied, got %q", record.Title)
	}
	if len(record.Tags) != 2 || record.Tags[0] != "personal" {
		t.Errorf("expected tags to be applied, got %v", record.Tags)
	}
}

func TestConversationRepository_ApplyAnalysisKeepsExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewConversationRepository(db)
	ctx := context.Background()
	seedConversation(t, db, "conv-001")

	if err := repo.ApplyAnalysis(ctx, "conv-001", "Original Title", []string{"a"}); err != nil {
		t.Fatalf("ApplyAnalysis failed: %v", err)
	}

	// Empty title and nil tags leave the existing values untouched.
	if err := repo.ApplyAnalysis(ctx, "conv-001", "", nil); err != nil {
		t.Fatalf("ApplyAnalysis failed: %v", err)
	}

	record, err := repo.GetByID(ctx, "conv-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.Title != "Original Title" {
		t.Errorf("title should be untouched, got %q", record.Title)
	}
	if len(record.Tags) != 1 {
		t.Errorf("tags should be untouched, got %v", record.Tags)
	}
}

func TestConversationRepository_ListOrdersByRecency(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewConversationRepository(db)
	ctx := context.Background()

	// Insert with explicit timestamps so ordering is deterministic.
	for _, row := range []struct{ id, updated string }{
		{"conv-old", "2025-08-27 08:00:00"},
		{"conv-new", "2025-08-30 17:15:00"},
		{"conv-mid", "2025-08-29 09:22:00"},
	} {
		_, err := db.Exec("INSERT INTO conversations (id, tags, updated_at) VALUES (?, '[]', ?)", row.id, row.updated)
		if err != nil {
			t.Fatalf("failed to seed conversation: %v", err)
		}
	}

	records, err := repo.List(ctx, listFilters(0))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(records))
	}
	if records[0].ID != "conv-new" || records[1].ID != "conv-mid" || records[2].ID != "conv-old" {
		t.Errorf("wrong order: %s, %s, %s", records[0].ID, records[1].ID, records[2].ID)
	}

	limited, err := repo.List(ctx, listFilters(1))
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "conv-new" {
		t.Errorf("limit not applied: %+v", limited)
	}
}

func TestConversationRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewConversationRepository(db)
	ctx := context.Background()

	seedConversation(t, db, "conv-001")
	seedMessage(t, db, "msg-001", "conv-001", "hello", true, "")
	if _, err := db.Exec(
		"INSERT INTO pending_tasks (id, conversation_id, command_key) VALUES ('task-001', 'conv-001', 'idiomatic_english')"); err != nil {
		t.Fatalf("failed to seed pending task: %v", err)
	}
	if _, err := db.Exec(
		"INSERT INTO analysis_results (id, conversation_id, payload) VALUES ('ana-001', 'conv-001', '{}')"); err != nil {
		t.Fatalf("failed to seed analysis: %v", err)
	}

	if err := repo.Delete(ctx, "conv-001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, table := range []string{"messages", "pending_tasks", "analysis_results"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("count %s failed: %v", table, err)
		}
		if count != 0 {
			t.Errorf("expected %s to cascade, %d rows remain", table, count)
		}
	}
}

func TestConversationRepository_DeleteNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewConversationRepository(db)

	if err := repo.Delete(context.Background(), "missing"); err == nil {
		t.Fatal("expected error deleting missing conversation")
	}
}
