// AngelaMos | 2026
// repository.go

package message

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/mystery-message/internal/core"
)

type Repository interface {
	Append(ctx context.Context, msg *Message) error
	ListByUser(ctx context.Context, userID string) ([]Message, error)
	DeleteForUser(ctx context.Context, userID, messageID string) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING seq, created_at`

	err := r.db.GetContext(ctx, msg, query, msg.ID, msg.UserID, msg.Content)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	return nil
}

// ListByUser returns the inbox newest first. Messages sharing a timestamp
// come back in reverse insertion order.
func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
) ([]Message, error) {
	query := `
		SELECT id, seq, user_id, content, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC`

	msgs := []Message{}
	if err := r.db.SelectContext(ctx, &msgs, query, userID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return msgs, nil
}

func (r *repository) DeleteForUser(
	ctx context.Context,
	userID, messageID string,
) error {
	if !core.IsUUID(messageID) {
		return fmt.Errorf("delete message: %w", core.ErrNotFound)
	}

	query := `DELETE FROM messages WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, messageID, userID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete message: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM messages`); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}
