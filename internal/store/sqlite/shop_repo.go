package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"negoshop/internal/domain"
)

type ShopRepo struct {
	db *sql.DB
}

func NewShopRepo(db *sql.DB) *ShopRepo {
	return &ShopRepo{db: db}
}

var _ domain.ShopRepository = (*ShopRepo)(nil)

func (r *ShopRepo) Create(ctx context.Context, s *domain.Shop) error {
	s.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO shops (merchant_id, name, category, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.MerchantID, s.Name, s.Category, s.Description, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert shop: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert shop: %w", err)
	}
	return nil
}

func (r *ShopRepo) GetByID(ctx context.Context, id int64) (*domain.Shop, error) {
	return r.getBy(ctx, `WHERE id = ?`, id)
}

func (r *ShopRepo) GetByMerchant(ctx context.Context, merchantID int64) (*domain.Shop, error) {
	return r.getBy(ctx, `WHERE merchant_id = ?`, merchantID)
}

func (r *ShopRepo) getBy(ctx context.Context, where string, arg any) (*domain.Shop, error) {
	query := `
		SELECT id, merchant_id, name, category, description, created_at
		FROM shops ` + where
	s := &domain.Shop{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&s.ID, &s.MerchantID, &s.Name, &s.Category, &s.Description, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return s, nil
}

func (r *ShopRepo) GetSettings(ctx context.Context, shopID int64) (*domain.NegotiationSettings, error) {
	query := `
		SELECT shop_id, is_active, min_price_threshold, max_discount_percentage, updated_at
		FROM negotiation_settings
		WHERE shop_id = ?
	`
	s := &domain.NegotiationSettings{}
	err := r.db.QueryRowContext(ctx, query, shopID).
		Scan(&s.ShopID, &s.IsActive, &s.MinPriceThreshold, &s.MaxDiscountPercentage, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *ShopRepo) UpsertSettings(ctx context.Context, s *domain.NegotiationSettings) error {
	s.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO negotiation_settings (shop_id, is_active, min_price_threshold, max_discount_percentage, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (shop_id) DO UPDATE SET
			is_active = excluded.is_active,
			min_price_threshold = excluded.min_price_threshold,
			max_discount_percentage = excluded.max_discount_percentage,
			updated_at = excluded.updated_at
	`, s.ShopID, s.IsActive, s.MinPriceThreshold, s.MaxDiscountPercentage, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
