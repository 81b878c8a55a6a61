package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/RomRMX/mothership/internal/logging"
)

const (
	writeWait = 5 * time.Second

	// sendBuffer bounds per-client queued snapshots; a stalled client is
	// disconnected rather than allowed to back up the hub
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Local bridge, same-machine frontends only
	CheckOrigin: func(*http.Request) bool { return true },
}

// hub fans snapshot payloads out to every connected websocket client.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast queues a payload for every client, dropping clients whose send
// buffer is full.
func (h *hub) broadcast(payload []byte) {
	h.mu.Lock()
	var stalled []*client
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			stalled = append(stalled, c)
		}
	}
	for _, c := range stalled {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	for _, c := range stalled {
		logging.Warn("Dropping stalled websocket client",
			zap.String("remote_addr", c.conn.RemoteAddr().String()))
		_ = c.conn.Close()
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// handleWebSocket upgrades the connection and streams snapshots. The first
// snapshot is sent immediately so a fresh client never renders empty.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		return
	}

	logging.Info("WebSocket client connected",
		zap.String("remote_addr", r.RemoteAddr))

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.hub.add(c)

	if payload, err := s.snapshotPayload(); err == nil {
		c.send <- payload
	}

	go s.readLoop(c)
	go s.writeLoop(c)
}

// readLoop drains (and ignores) client frames so pings and close frames are
// processed, then tears the client down on disconnect.
func (s *Server) readLoop(c *client) {
	defer func() {
		s.hub.remove(c)
		_ = c.conn.Close()
		logging.Info("WebSocket client disconnected",
			zap.String("remote_addr", c.conn.RemoteAddr().String()))
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	// Hub closed the channel: say goodbye properly
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
