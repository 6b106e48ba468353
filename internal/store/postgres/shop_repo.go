package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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
	query := `
		INSERT INTO shops (merchant_id, name, category, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, s.MerchantID, s.Name, s.Category, s.Description).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert shop: %w", err)
	}
	return nil
}

func (r *ShopRepo) GetByID(ctx context.Context, id int64) (*domain.Shop, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *ShopRepo) GetByMerchant(ctx context.Context, merchantID int64) (*domain.Shop, error) {
	return r.getBy(ctx, `WHERE merchant_id = $1`, merchantID)
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
		WHERE shop_id = $1
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
	query := `
		INSERT INTO negotiation_settings (shop_id, is_active, min_price_threshold, max_discount_percentage, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (shop_id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			min_price_threshold = EXCLUDED.min_price_threshold,
			max_discount_percentage = EXCLUDED.max_discount_percentage,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, s.ShopID, s.IsActive, s.MinPriceThreshold, s.MaxDiscountPercentage).
		Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
