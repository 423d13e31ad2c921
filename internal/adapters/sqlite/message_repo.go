package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/thoughtstream/internal/ports/secondary"
)

// MessageRepository implements secondary.MessageRepository with SQLite.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new SQLite message repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append persists a new message at the end of its conversation and
// bumps the conversation's updated_at in the same transaction, so a
// concurrent reader never sees one without the other.
func (r *MessageRepository) Append(ctx context.Context, message *secondary.MessageRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, position, text, sent_by_user, command_key)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM messages WHERE conversation_id = ?), ?, ?, ?)`,
		message.ID, message.ConversationID, message.ConversationID,
		message.Text, boolToInt(message.SentByUser), message.CommandKey,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		message.ConversationID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message append: %w", err)
	}
	return nil
}

// UpdateText replaces a message's text while a streamed response is
// being assembled.
func (r *MessageRepository) UpdateText(ctx context.Context, id, text string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE messages SET text = ? WHERE id = ?", text, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update message text: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("message %s not found", id)
	}
	return nil
}

// LinkAnalysis attaches an analysis result to a message.
func (r *MessageRepository) LinkAnalysis(ctx context.Context, messageID, analysisID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE messages SET analysis_id = ? WHERE id = ?", analysisID, messageID,
	)
	if err != nil {
		return fmt.Errorf("failed to link analysis: %w", err)
	}
	return nil
}

// ListByConversation returns the conversation's messages in insertion order.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*secondary.MessageRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, text, sent_by_user, command_key, analysis_id, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY position ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var records []*secondary.MessageRecord
	for rows.Next() {
		record := &secondary.MessageRecord{}
		var (
			sentByUser int
			analysisID sql.NullString
		)
		if err := rows.Scan(&record.ID, &record.ConversationID, &record.Text,
			&sentByUser, &record.CommandKey, &analysisID, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		record.SentByUser = sentByUser == 1
		record.AnalysisID = analysisID.String
		records = append(records, record)
	}

	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
