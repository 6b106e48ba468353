package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"negoshop/internal/domain"
	"negoshop/internal/presence"
)

// handleMerchantStatus reports a merchant's presence as seen by buyers.
func handleMerchantStatus(activities domain.ActivityRepository, users domain.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := strconv.ParseInt(chi.URLParam(r, "merchantID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid merchant id"})
			return
		}

		merchant, err := users.GetByID(r.Context(), merchantID)
		if err != nil {
			writeError(w, err)
			return
		}
		if merchant == nil || merchant.Role != domain.RoleMerchant {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "merchant not found"})
			return
		}

		act, err := activities.Get(r.Context(), merchantID)
		if err != nil {
			writeError(w, err)
			return
		}

		now := time.Now()
		resp := map[string]any{
			"merchant_id": merchantID,
			"username":    merchant.Username,
			"status":      presence.Status(act, now),
			"is_online":   false,
		}
		if act != nil {
			resp["is_online"] = act.IsOnline
			resp["last_seen"] = act.LastSeen
			resp["minutes_since_last_seen"] = act.MinutesSinceLastSeen(now)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleMyStatus lets a merchant inspect their own presence record.
func handleMyStatus(activities domain.ActivityRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user.Role != domain.RoleMerchant {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "merchants only"})
			return
		}

		act, err := activities.Get(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		now := time.Now()
		resp := map[string]any{
			"merchant_id": user.ID,
			"status":      presence.Status(act, now),
		}
		if act != nil {
			resp["is_online"] = act.IsOnline
			resp["is_active_in_chat"] = act.IsActiveInChat
			resp["last_seen"] = act.LastSeen
			resp["last_login"] = act.LastLogin
			resp["minutes_since_last_seen"] = act.MinutesSinceLastSeen(now)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
