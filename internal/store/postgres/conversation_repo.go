package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"negoshop/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	query := `
		INSERT INTO conversations (product_id, client_id, merchant_id, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, c.ProductID, c.ClientID, c.MerchantID, c.IsActive).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	query := `
		SELECT id, product_id, client_id, merchant_id, is_active, created_at
		FROM conversations
		WHERE id = $1
	`
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.ProductID, &c.ClientID, &c.MerchantID, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) FindOpen(ctx context.Context, productID, clientID int64) (*domain.Conversation, error) {
	query := `
		SELECT id, product_id, client_id, merchant_id, is_active, created_at
		FROM conversations
		WHERE product_id = $1 AND client_id = $2 AND is_active
	`
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, query, productID, clientID).
		Scan(&c.ID, &c.ProductID, &c.ClientID, &c.MerchantID, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64, role domain.UserRole) ([]*domain.Conversation, error) {
	column := "client_id"
	if role == domain.RoleMerchant {
		column = "merchant_id"
	}
	query := fmt.Sprintf(`
		SELECT id, product_id, client_id, merchant_id, is_active, created_at
		FROM conversations
		WHERE %s = $1
		ORDER BY created_at DESC
	`, column)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		if err := rows.Scan(&c.ID, &c.ProductID, &c.ClientID, &c.MerchantID, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
