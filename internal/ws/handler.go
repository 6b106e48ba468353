package ws

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"negoshop/internal/domain"
	"negoshop/internal/presence"
	"negoshop/internal/security"
	"negoshop/internal/service"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return ""
}

// MakeHandler returns the HTTP handler for the /ws endpoint. Clients
// authenticate via Bearer token (Authorization header or
// Sec-WebSocket-Protocol) and send events:
//   - message -> run the chat pipeline; stored messages and any automated
//     reply are broadcast to both conversation participants
//
// Merchant presence is stamped on connect and on every inbound frame, so an
// open merchant socket keeps the automated assistant silent.
func MakeHandler(
	hub *Hub,
	tokens *security.TokenService,
	users domain.UserRepository,
	chatSvc *service.ChatService,
	tracker *presence.Tracker,
	allowedOrigins []string,
	log *zap.Logger,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin:  checkOrigin,
		Subprotocols: []string{"bearer"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr := extractToken(r)
		if tokenStr == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			http.Error(w, "invalid token subject", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := users.GetByUsername(ctx, sub)
		if err != nil || user == nil || !user.IsActive {
			http.Error(w, "user not found or inactive", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		hub.Register(user.ID, conn)
		defer hub.Unregister(user.ID, conn)

		stampPresence := func() {
			if user.Role != domain.RoleMerchant {
				return
			}
			sessionKey := tokenStr
			if len(sessionKey) > 32 {
				sessionKey = sessionKey[len(sessionKey)-32:]
			}
			if _, err := tracker.RecordActivity(ctx, user.ID, sessionKey, time.Now()); err != nil {
				log.Warn("failed to record merchant activity",
					zap.Int64("merchant_id", user.ID), zap.Error(err))
			}
		}
		stampPresence()

		for {
			var payload map[string]any
			if err := conn.ReadJSON(&payload); err != nil {
				break
			}
			stampPresence()

			msgType, _ := payload["type"].(string)
			switch msgType {
			case "message":
				convIDf, _ := payload["conversation_id"].(float64)
				content, _ := payload["content"].(string)
				if convIDf == 0 || content == "" {
					sendError(conn, "message requires conversation_id and non-empty content")
					continue
				}
				// HandleMessage broadcasts the stored message and any
				// automated reply through the hub.
				if _, _, err := chatSvc.HandleMessage(ctx, user, int64(convIDf), content); err != nil {
					log.Warn("ws message failed",
						zap.Int64("user_id", user.ID), zap.Error(err))
					sendError(conn, "failed to send message")
				}

			default:
				log.Debug("unknown ws event",
					zap.String("type", msgType), zap.Int64("user_id", user.ID))
			}
		}
	}
}

func sendError(conn *websocket.Conn, msg string) {
	_ = conn.WriteJSON(map[string]any{
		"type":    "error",
		"message": msg,
	})
}
