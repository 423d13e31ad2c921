// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the single point where the database schema is loaded for
// tests. All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema, preventing drift between test and production.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/thoughtstream/internal/db"
	"github.com/example/thoughtstream/internal/ports/secondary"
)

// listFilters builds conversation filters with an optional limit.
func listFilters(limit int) secondary.ConversationFilters {
	return secondary.ConversationFilters{Limit: limit}
}

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedConversation inserts a test conversation and returns its ID.
func seedConversation(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	if id == "" {
		id = "conv-001"
	}
	_, err := db.Exec("INSERT INTO conversations (id, tags) VALUES (?, '[]')", id)
	if err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}
	return id
}

// seedMessage inserts a test message at the next position and returns its ID.
func seedMessage(t *testing.T, db *sql.DB, id, conversationID, text string, sentByUser bool, commandKey string) string {
	t.Helper()
	sent := 0
	if sentByUser {
		sent = 1
	}
	_, err := db.Exec(
		`INSERT INTO messages (id, conversation_id, position, text, sent_by_user, command_key)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM messages WHERE conversation_id = ?), ?, ?, ?)`,
		id, conversationID, conversationID, text, sent, commandKey,
	)
	if err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}
	return id
}
