package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"negoshop/internal/domain"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

var _ domain.ActivityRepository = (*ActivityRepo)(nil)

func (r *ActivityRepo) Get(ctx context.Context, merchantID int64) (*domain.MerchantActivity, error) {
	query := `
		SELECT merchant_id, session_key, is_online, is_active_in_chat, last_seen, last_login
		FROM merchant_activity
		WHERE merchant_id = ?
	`
	a := &domain.MerchantActivity{}
	err := r.db.QueryRowContext(ctx, query, merchantID).
		Scan(&a.MerchantID, &a.SessionKey, &a.IsOnline, &a.IsActiveInChat, &a.LastSeen, &a.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

func (r *ActivityRepo) Upsert(ctx context.Context, a *domain.MerchantActivity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO merchant_activity (merchant_id, session_key, is_online, is_active_in_chat, last_seen, last_login)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (merchant_id) DO UPDATE SET
			session_key = excluded.session_key,
			is_online = excluded.is_online,
			is_active_in_chat = excluded.is_active_in_chat,
			last_seen = excluded.last_seen,
			last_login = excluded.last_login
	`, a.MerchantID, a.SessionKey, a.IsOnline, a.IsActiveInChat, a.LastSeen, a.LastLogin)
	if err != nil {
		return fmt.Errorf("upsert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) MarkOffline(ctx context.Context, staleBefore time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE merchant_activity SET is_online = FALSE
		WHERE last_seen < ? AND is_online
	`, staleBefore)
	if err != nil {
		return 0, fmt.Errorf("mark offline: %w", err)
	}
	return res.RowsAffected()
}

func (r *ActivityRepo) MarkOnline(ctx context.Context, activeSince time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE merchant_activity SET is_online = TRUE
		WHERE last_seen >= ? AND NOT is_online
	`, activeSince)
	if err != nil {
		return 0, fmt.Errorf("mark online: %w", err)
	}
	return res.RowsAffected()
}

func (r *ActivityRepo) SetChatActive(ctx context.Context, merchantIDs []int64) error {
	if len(merchantIDs) == 0 {
		if _, err := r.db.ExecContext(ctx, `
			UPDATE merchant_activity SET is_active_in_chat = FALSE WHERE is_active_in_chat
		`); err != nil {
			return fmt.Errorf("clear chat active: %w", err)
		}
		return nil
	}

	placeholders := make([]string, len(merchantIDs))
	args := make([]any, len(merchantIDs))
	for i, id := range merchantIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	in := strings.Join(placeholders, ", ")

	if _, err := r.db.ExecContext(ctx,
		`UPDATE merchant_activity SET is_active_in_chat = TRUE WHERE merchant_id IN (`+in+`)`,
		args...); err != nil {
		return fmt.Errorf("set chat active: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE merchant_activity SET is_active_in_chat = FALSE WHERE is_active_in_chat AND merchant_id NOT IN (`+in+`)`,
		args...); err != nil {
		return fmt.Errorf("clear chat active: %w", err)
	}
	return nil
}
