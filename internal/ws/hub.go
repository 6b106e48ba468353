package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub manages active WebSocket connections keyed by user ID and fans chat
// events out to conversation participants.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]map[*websocket.Conn]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[int64]map[*websocket.Conn]struct{}),
		log:   log,
	}
}

// Register adds a connection for the given user.
func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

// Unregister removes a connection for the given user.
func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(userID, conn)
}

func (h *Hub) remove(userID int64, conn *websocket.Conn) {
	if conns, ok := h.conns[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conns, userID)
		}
	}
}

// BroadcastToUsers sends the payload to all active connections of the given
// user IDs. Connections that fail to write are closed and dropped.
func (h *Hub) BroadcastToUsers(userIDs []int64, payload any) {
	type deadConn struct {
		userID int64
		conn   *websocket.Conn
	}
	var dead []deadConn

	h.mu.RLock()
	for _, uid := range userIDs {
		for conn := range h.conns[uid] {
			if err := conn.WriteJSON(payload); err != nil {
				h.log.Debug("dropping websocket connection",
					zap.Int64("user_id", uid), zap.Error(err))
				conn.Close()
				dead = append(dead, deadConn{userID: uid, conn: conn})
			}
		}
	}
	h.mu.RUnlock()

	if len(dead) == 0 {
		return
	}
	h.mu.Lock()
	for _, d := range dead {
		h.remove(d.userID, d.conn)
	}
	h.mu.Unlock()
}

// Connected reports whether the user has at least one live connection.
func (h *Hub) Connected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}
