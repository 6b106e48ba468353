package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"negoshop/internal/domain"
)

// CatalogService covers the thin product and negotiation-settings surface
// the chat core depends on.
type CatalogService struct {
	shops    domain.ShopRepository
	products domain.ProductRepository
}

func NewCatalogService(shops domain.ShopRepository, products domain.ProductRepository) *CatalogService {
	return &CatalogService{shops: shops, products: products}
}

type ProductCreateInput struct {
	Name        string
	Price       decimal.Decimal
	Stock       int
	Description *string
}

func (s *CatalogService) CreateProduct(ctx context.Context, merchant *domain.User, in ProductCreateInput) (*domain.Product, error) {
	if merchant.Role != domain.RoleMerchant {
		return nil, domain.ErrForbidden
	}
	if in.Name == "" {
		return nil, errors.New("product name is required")
	}
	if in.Price.IsNegative() {
		return nil, errors.New("price must not be negative")
	}
	if in.Stock < 0 {
		return nil, errors.New("stock must not be negative")
	}

	shop, err := s.shops.GetByMerchant(ctx, merchant.ID)
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	if shop == nil {
		return nil, errors.New("merchant has no shop")
	}

	product := &domain.Product{
		ShopID:      shop.ID,
		Name:        in.Name,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func (s *CatalogService) ListShopProducts(ctx context.Context, merchant *domain.User) ([]*domain.Product, error) {
	shop, err := s.shops.GetByMerchant(ctx, merchant.ID)
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	if shop == nil {
		return nil, errors.New("merchant has no shop")
	}
	return s.products.ListForShop(ctx, shop.ID)
}

type SettingsInput struct {
	IsActive              bool
	MinPriceThreshold     decimal.Decimal
	MaxDiscountPercentage decimal.Decimal
}

// ConfigureNegotiation stores the merchant's negotiation bounds. A zero
// threshold keeps the default floor (70% of each product's price).
func (s *CatalogService) ConfigureNegotiation(ctx context.Context, merchant *domain.User, in SettingsInput) (*domain.NegotiationSettings, error) {
	if merchant.Role != domain.RoleMerchant {
		return nil, domain.ErrForbidden
	}
	if in.MinPriceThreshold.IsNegative() {
		return nil, errors.New("minimum price must not be negative")
	}
	if in.MaxDiscountPercentage.IsNegative() || in.MaxDiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, errors.New("max discount must be between 0 and 100")
	}

	shop, err := s.shops.GetByMerchant(ctx, merchant.ID)
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	if shop == nil {
		return nil, errors.New("merchant has no shop")
	}

	settings := &domain.NegotiationSettings{
		ShopID:                shop.ID,
		IsActive:              in.IsActive,
		MinPriceThreshold:     in.MinPriceThreshold,
		MaxDiscountPercentage: in.MaxDiscountPercentage,
	}
	if err := s.shops.UpsertSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("upsert settings: %w", err)
	}
	return settings, nil
}

func (s *CatalogService) GetNegotiationSettings(ctx context.Context, merchant *domain.User) (*domain.NegotiationSettings, error) {
	shop, err := s.shops.GetByMerchant(ctx, merchant.ID)
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	if shop == nil {
		return nil, errors.New("merchant has no shop")
	}
	return s.shops.GetSettings(ctx, shop.ID)
}
