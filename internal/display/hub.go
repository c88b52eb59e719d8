package display

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/openclinic/frontdesk/pkg/logging"
)

// Hub fans the derived board out to every connected waiting-room screen.
// Screens are write-only consumers; a failed write drops the connection.
type Hub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	logger   *logging.Logger

	last []byte // most recent board payload, replayed to new screens
}

func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		conns: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Screens live on the clinic LAN and carry no credentials.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP upgrades a screen connection and registers it. The most recent
// board is replayed immediately so a fresh screen is never blank until the
// next poll tick.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("display upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	// Replay before registering so the catch-up write cannot interleave
	// with a broadcast; gorilla connections allow one writer at a time.
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()
	if last != nil {
		if err := conn.WriteMessage(websocket.TextMessage, last); err != nil {
			_ = conn.Close()
			return
		}
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("display connected", "remote", r.RemoteAddr)

	// Drain reads so pings and close frames are processed; screens send
	// nothing meaningful.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes a board to every connected screen, dropping the ones
// whose writes fail.
func (h *Hub) Broadcast(board *Board) {
	payload, err := json.Marshal(board)
	if err != nil {
		h.logger.Error("display board encode failed", "error", err)
		return
	}

	h.mu.Lock()
	h.last = payload
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(c)
		}
	}
}

// Count reports connected screens.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every screen, used at shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = c.Close()
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
		h.logger.Info("display disconnected", "remote", conn.RemoteAddr().String())
	}
}
