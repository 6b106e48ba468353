package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"negoshop/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (conversation_id, sender_id, content, is_ai_response)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, m.ConversationID, m.SenderID, m.Content, m.IsAIResponse).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, is_ai_response, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.IsAIResponse, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *MessageRepo) LastMerchantMessageAt(ctx context.Context, conversationID, merchantID int64) (*time.Time, error) {
	// Assistant replies are stored under the merchant's identity but must
	// not count as the merchant being active in the chat.
	query := `
		SELECT MAX(created_at)
		FROM messages
		WHERE conversation_id = $1 AND sender_id = $2 AND NOT is_ai_response
	`
	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, conversationID, merchantID).Scan(&last); err != nil {
		return nil, fmt.Errorf("last merchant message: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

func (r *MessageRepo) RecentMerchantSenders(ctx context.Context, since time.Time) ([]int64, error) {
	query := `
		SELECT DISTINCT m.sender_id
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.created_at >= $1 AND m.sender_id = c.merchant_id AND NOT m.is_ai_response
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("recent merchant senders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan sender id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
