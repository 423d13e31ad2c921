package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/thoughtstream/internal/ports/secondary"
)

// PendingTaskRepository implements secondary.PendingTaskRepository with
// SQLite. The UNIQUE constraint on pending_tasks.conversation_id backs
// the at-most-one-task-per-conversation invariant at the storage layer.
type PendingTaskRepository struct {
	db *sql.DB
}

// NewPendingTaskRepository creates a new SQLite pending task repository.
func NewPendingTaskRepository(db *sql.DB) *PendingTaskRepository {
	return &PendingTaskRepository{db: db}
}

// Upsert creates the conversation's pending task or overwrites the
// existing one, resetting status to loading and clearing any prior error.
func (r *PendingTaskRepository) Upsert(ctx context.Context, task *secondary.PendingTaskRecord) (*secondary.PendingTaskRecord, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pending_tasks (id, conversation_id, command_key, status, error_message)
		 VALUES (?, ?, ?, 'loading', NULL)
		 ON CONFLICT(conversation_id) DO UPDATE SET
			command_key = excluded.command_key,
			status = 'loading',
			error_message = NULL,
			created_at = CURRENT_TIMESTAMP`,
		task.ID, task.ConversationID, task.CommandKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert pending task: %w", err)
	}

	return r.FetchByConversation(ctx, task.ConversationID)
}

// MarkError transitions the task to error status with a message.
func (r *PendingTaskRepository) MarkError(ctx context.Context, taskID, message string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE pending_tasks SET status = 'error', error_message = ? WHERE id = ?",
		message, taskID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark pending task error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pending task %s not found", taskID)
	}
	return nil
}

// Clear deletes the task after a successful completion.
func (r *PendingTaskRepository) Clear(ctx context.Context, taskID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM pending_tasks WHERE id = ?", taskID)
	if err != nil {
		return fmt.Errorf("failed to clear pending task: %w", err)
	}
	return nil
}

// FetchByConversation returns the conversation's pending task, or nil
// when there is none.
func (r *PendingTaskRepository) FetchByConversation(ctx context.Context, conversationID string) (*secondary.PendingTaskRecord, error) {
	record := &secondary.PendingTaskRecord{}
	var errorMessage sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, command_key, status, error_message, created_at
		 FROM pending_tasks WHERE conversation_id = ?`,
		conversationID,
	).Scan(&record.ID, &record.ConversationID, &record.CommandKey,
		&record.Status, &errorMessage, &record.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending task: %w", err)
	}

	record.ErrorMessage = errorMessage.String
	return record, nil
}
