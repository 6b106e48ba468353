package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"negoshop/internal/config"
	"negoshop/internal/domain"
	"negoshop/internal/negotiation"
	"negoshop/internal/presence"
	"negoshop/internal/security"
	"negoshop/internal/service"
	"negoshop/internal/store"
	"negoshop/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(
	cfg *config.Config,
	repos *store.Repositories,
	hub *ws.Hub,
	tokens *security.TokenService,
	hasher *security.PasswordHasher,
	encryptor *security.Encryptor,
	tracker *presence.Tracker,
	responder *negotiation.Responder,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	authSvc := service.NewAuthService(repos.Users, repos.Shops, tokens, hasher)
	catalogSvc := service.NewCatalogService(repos.Shops, repos.Products)
	chatSvc := service.NewChatService(
		repos.Conversations, repos.Messages, repos.Products, repos.Shops, repos.Users,
		tracker, responder, encryptor, hub, log)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "negoshop API",
			"version": "1.0.0",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokens, repos.Users))
			r.Use(ActivityMiddleware(tracker, log))

			r.Get("/auth/me", handleMe())

			r.Route("/products", func(r chi.Router) {
				r.Get("/{productID}", handleGetProduct(catalogSvc))
				r.Post("/{productID}/negotiate", handleStartNegotiation(chatSvc))
			})

			r.Route("/shop", func(r chi.Router) {
				r.Post("/products", handleCreateProduct(catalogSvc))
				r.Get("/products", handleListShopProducts(catalogSvc))
				r.Get("/negotiation", handleGetSettings(catalogSvc))
				r.Put("/negotiation", handlePutSettings(catalogSvc))
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", handleListConversations(chatSvc))
				r.Get("/{conversationID}/messages", handleListMessages(chatSvc, cfg.MaxMessagesPerConversation))
				r.Post("/{conversationID}/messages", handleCreateMessage(chatSvc))
			})

			r.Get("/merchants/{merchantID}/status", handleMerchantStatus(repos.Activities, repos.Users))
			r.Get("/me/status", handleMyStatus(repos.Activities))
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, tokens, repos.Users, chatSvc, tracker, cfg.CORSOrigins, log))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
