package httpserver

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"negoshop/internal/domain"
	"negoshop/internal/presence"
)

// ActivityMiddleware stamps merchant presence on every authenticated request.
// The stamp happens before the handler runs so that even a request that fails
// still counts as the merchant being at the keyboard.
func ActivityMiddleware(tracker *presence.Tracker, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := CurrentUser(r); user != nil && user.Role == domain.RoleMerchant {
				sessionKey := r.Header.Get("Authorization")
				if len(sessionKey) > 32 {
					sessionKey = sessionKey[len(sessionKey)-32:]
				}
				if _, err := tracker.RecordActivity(r.Context(), user.ID, sessionKey, time.Now()); err != nil {
					log.Warn("failed to record merchant activity",
						zap.Int64("merchant_id", user.ID), zap.Error(err))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
