package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"negoshop/internal/service"
)

type productRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description *string         `json:"description,omitempty"`
}

func handleCreateProduct(catalogSvc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		var req productRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		product, err := catalogSvc.CreateProduct(r.Context(), user, service.ProductCreateInput{
			Name:        req.Name,
			Price:       req.Price,
			Stock:       req.Stock,
			Description: req.Description,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	}
}

func handleGetProduct(catalogSvc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
			return
		}
		product, err := catalogSvc.GetProduct(r.Context(), productID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

func handleListShopProducts(catalogSvc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := catalogSvc.ListShopProducts(r.Context(), CurrentUser(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

type settingsRequest struct {
	IsActive              bool            `json:"is_active"`
	MinPriceThreshold     decimal.Decimal `json:"min_price_threshold"`
	MaxDiscountPercentage decimal.Decimal `json:"max_discount_percentage"`
}

func handlePutSettings(catalogSvc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		settings, err := catalogSvc.ConfigureNegotiation(r.Context(), CurrentUser(r), service.SettingsInput{
			IsActive:              req.IsActive,
			MinPriceThreshold:     req.MinPriceThreshold,
			MaxDiscountPercentage: req.MaxDiscountPercentage,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func handleGetSettings(catalogSvc *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := catalogSvc.GetNegotiationSettings(r.Context(), CurrentUser(r))
		if err != nil {
			writeError(w, err)
			return
		}
		if settings == nil {
			writeJSON(w, http.StatusOK, map[string]any{"is_active": false})
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}
