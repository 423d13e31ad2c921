// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/example/thoughtstream/internal/ports/secondary"
)

// ConversationRepository implements secondary.ConversationRepository with SQLite.
type ConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a new SQLite conversation repository.
func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Ensure retrieves the conversation, creating it when absent.
func (r *ConversationRepository) Ensure(ctx context.Context, id string) (*secondary.ConversationRecord, error) {
	record, err := r.GetByID(ctx, id)
	if err == nil {
		return record, nil
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO conversations (id, tags) VALUES (?, '[]') ON CONFLICT(id) DO NOTHING", id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a conversation by its ID.
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*secondary.ConversationRecord, error) {
	record := &secondary.ConversationRecord{}
	var (
		title, summary sql.NullString
		tagsJSON       string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, summary, tags, created_at, updated_at FROM conversations WHERE id = ?",
		id,
	).Scan(&record.ID, &title, &summary, &tagsJSON, &record.CreatedAt, &record.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	record.Title = title.String
	record.Summary = summary.String
	if err := json.Unmarshal([]byte(tagsJSON), &record.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode conversation tags: %w", err)
	}

	return record, nil
}

// List retrieves conversations ordered by recency.
func (r *ConversationRepository) List(ctx context.Context, filters secondary.ConversationFilters) ([]*secondary.ConversationRecord, error) {
	query := "SELECT id, title, summary, tags, created_at, updated_at FROM conversations ORDER BY updated_at DESC"
	args := []any{}
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var records []*secondary.ConversationRecord
	for rows.Next() {
		record := &secondary.ConversationRecord{}
		var (
			title, summary sql.NullString
			tagsJSON       string
		)
		if err := rows.Scan(&record.ID, &title, &summary, &tagsJSON, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		record.Title = title.String
		record.Summary = summary.String
		if err := json.Unmarshal([]byte(tagsJSON), &record.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode conversation tags: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Touch bumps the conversation's updated_at.
func (r *ConversationRepository) Touch(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// ApplyAnalysis updates title and tags from an analysis outcome.
func (r *ConversationRepository) ApplyAnalysis(ctx context.Context, id, title string, tags []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if title != "" {
		if _, err := tx.ExecContext(ctx,
			"UPDATE conversations SET title = ? WHERE id = ?", title, id); err != nil {
			return fmt.Errorf("failed to update conversation title: %w", err)
		}
	}
	if tags != nil {
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to encode conversation tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE conversations SET tags = ? WHERE id = ?", string(tagsJSON), id); err != nil {
			return fmt.Errorf("failed to update conversation tags: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis update: %w", err)
	}
	return nil
}

// Delete removes a conversation. Owned rows cascade.
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("conversation %s not found", id)
	}
	return nil
}
