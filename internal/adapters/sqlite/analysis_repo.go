package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/thoughtstream/internal/ports/secondary"
)

// AnalysisRepository implements secondary.AnalysisRepository with SQLite.
type AnalysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new SQLite analysis repository.
func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save persists an analysis result.
func (r *AnalysisRepository) Save(ctx context.Context, record *secondary.AnalysisRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO analysis_results (id, conversation_id, message_id, payload) VALUES (?, ?, ?, ?)",
		record.ID, record.ConversationID, nullable(record.MessageID), record.Payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}
	return nil
}

// GetByID retrieves an analysis result by its ID.
func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*secondary.AnalysisRecord, error) {
	record := &secondary.AnalysisRecord{}
	var messageID sql.NullString

	err := r.db.QueryRowContext(ctx,
		"SELECT id, conversation_id, message_id, payload, created_at FROM analysis_results WHERE id = ?",
		id,
	).Scan(&record.ID, &record.ConversationID, &messageID, &record.Payload, &record.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis result %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis result: %w", err)
	}

	record.MessageID = messageID.String
	return record, nil
}

// ListByConversation returns a conversation's analysis results in
// creation order.
func (r *AnalysisRepository) ListByConversation(ctx context.Context, conversationID string) ([]*secondary.AnalysisRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, conversation_id, message_id, payload, created_at FROM analysis_results WHERE conversation_id = ? ORDER BY created_at ASC",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}
	defer rows.Close()

	var records []*secondary.AnalysisRecord
	for rows.Next() {
		record := &secondary.AnalysisRecord{}
		var messageID sql.NullString
		if err := rows.Scan(&record.ID, &record.ConversationID, &messageID, &record.Payload, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis result: %w", err)
		}
		record.MessageID = messageID.String
		records = append(records, record)
	}

	return records, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
