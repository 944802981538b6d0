package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/metrics"
	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
)

type feedClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	stopCh  chan struct{}
	once    sync.Once
}

func (fc *feedClient) write(messageType int, payload []byte) error {
	fc.writeMu.Lock()
	defer fc.writeMu.Unlock()
	if err := fc.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketConfig.WriteTimeout)); err != nil {
		return err
	}
	return fc.conn.WriteMessage(messageType, payload)
}

func (fc *feedClient) close() {
	fc.once.Do(func() {
		close(fc.stopCh)
		_ = fc.conn.Close()
	})
}

// Hub pushes conversation events to every connected WebSocket follower. It is
// registered as a session observer.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*feedClient]struct{}
	closed   bool
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewHub(m *metrics.Metrics, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The phone view is served from this host, but LAN followers may not be.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*feedClient]struct{}),
		metrics: m,
		logger:  logger,
	}
}

// Serve upgrades the request and keeps the connection until the peer leaves.
// hello, when non-nil, is sent before any broadcast.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, hello *conversation.Event) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	fc := &feedClient{conn: conn, stopCh: make(chan struct{})}
	if !h.add(fc) {
		fc.close()
		return
	}
	if hello != nil {
		payload, err := json.Marshal(hello)
		if err == nil {
			err = fc.write(websocket.TextMessage, payload)
		}
		if err != nil {
			h.logger.Warn("Failed to greet feed client", zap.Error(err))
			h.remove(fc)
			return
		}
	}
	h.logger.Info("Feed client connected", zap.String("remote", r.RemoteAddr))

	go h.keepalive(fc)
	h.readLoop(fc)
}

func (h *Hub) add(fc *feedClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[fc] = struct{}{}
	h.metrics.SetFeedClients(len(h.clients))
	return true
}

func (h *Hub) remove(fc *feedClient) {
	h.mu.Lock()
	_, ok := h.clients[fc]
	delete(h.clients, fc)
	count := len(h.clients)
	h.mu.Unlock()

	fc.close()
	if ok {
		h.metrics.SetFeedClients(count)
		h.logger.Info("Feed client disconnected", zap.Int("remaining", count))
	}
}

// readLoop discards inbound frames; it exists to process pongs and notice closes.
func (h *Hub) readLoop(fc *feedClient) {
	defer h.remove(fc)

	pongWait := constants.WebSocketConfig.PongWait
	_ = fc.conn.SetReadDeadline(time.Now().Add(pongWait))
	fc.conn.SetPongHandler(func(string) error {
		return fc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := fc.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Feed client read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) keepalive(fc *feedClient) {
	ticker := time.NewTicker(constants.WebSocketConfig.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-fc.stopCh:
			return
		case <-ticker.C:
			if err := fc.write(websocket.PingMessage, nil); err != nil {
				h.remove(fc)
				return
			}
		}
	}
}

func (h *Hub) snapshot() []*feedClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*feedClient, 0, len(h.clients))
	for fc := range h.clients {
		out = append(out, fc)
	}
	return out
}

// Broadcast writes event to every client in parallel. Clients that fail the
// write deadline are dropped.
func (h *Hub) Broadcast(event conversation.Event) {
	clients := h.snapshot()
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal feed event", zap.Error(err))
		return
	}

	p := pool.New().WithMaxGoroutines(constants.WebSocketConfig.BroadcastWorkers)
	for _, fc := range clients {
		fc := fc
		p.Go(func() {
			if err := fc.write(websocket.TextMessage, payload); err != nil {
				h.logger.Debug("Dropping slow feed client", zap.Error(err))
				h.remove(fc)
			}
		})
	}
	p.Wait()
}

func (h *Hub) EntryAppended(sessionID string, entry domain.ConversationEntry) {
	h.Broadcast(conversation.Event{Type: "entry", SessionID: sessionID, Entry: &entry})
}

func (h *Hub) StatusChanged(status domain.ListeningStatus) {
	h.Broadcast(conversation.Event{Type: "status", SessionID: status.SessionID, Status: &status})
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close sends a close frame to every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*feedClient, 0, len(h.clients))
	for fc := range h.clients {
		clients = append(clients, fc)
	}
	h.clients = make(map[*feedClient]struct{})
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, fc := range clients {
		_ = fc.write(websocket.CloseMessage, msg)
		fc.close()
	}
	h.metrics.SetFeedClients(0)
}
