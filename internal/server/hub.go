package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/marketpulse/internal/metrics"
	"github.com/rickgao/marketpulse/internal/model"
)

// MessageTypeSnapshot tags stream messages carrying a snapshot.
const MessageTypeSnapshot = "snapshot"

const writeWait = 10 * time.Second

// StreamMessage is the envelope written to stream clients.
type StreamMessage struct {
	Type string         `json:"type"`
	Data model.Snapshot `json:"data"`
}

// Hub fans snapshots out to connected websocket clients.
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	bufferSize   int
	logger       *slog.Logger

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewHub creates an empty hub.
func NewHub(pingInterval time.Duration, bufferSize int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if bufferSize < 1 {
		bufferSize = 1
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: pingInterval,
		bufferSize:   bufferSize,
		logger:       logger,
		clients:      make(map[*streamClient]struct{}),
	}
}

// Serve upgrades the request and streams the current state followed by every
// broadcast. The client is registered before state is read, so a broadcast
// cannot fall between the first frame and the client joining.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, state func() model.Snapshot) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	c := &streamClient{
		conn: conn,
		send: make(chan []byte, h.bufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)

	// Broadcast holds h.mu, so nothing is queued ahead of the first frame.
	first, err := encodeSnapshot(state())
	if err != nil {
		delete(h.clients, c)
		h.mu.Unlock()
		h.logger.Error("encode snapshot failed", "err", err)
		conn.Close()
		return
	}
	c.send <- first
	h.mu.Unlock()

	metrics.StreamClients.Inc()
	h.logger.Debug("stream client connected", "remote", r.RemoteAddr, "clients", count)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast queues s for every client. A client whose queue is full misses it.
func (h *Hub) Broadcast(s model.Snapshot) {
	data, err := encodeSnapshot(s)
	if err != nil {
		h.logger.Error("encode snapshot failed", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("stream client buffer full, dropping snapshot")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second),
		)
		h.remove(c)
	}
}

func (h *Hub) remove(c *streamClient) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()

		close(c.done)
		c.conn.Close()
		metrics.StreamClients.Dec()
		h.logger.Debug("stream client disconnected")
	})
}

// writeLoop is the only writer of data frames on c.conn.
func (h *Hub) writeLoop(c *streamClient) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	defer h.remove(c)

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("stream write failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.logger.Debug("stream ping failed", "err", err)
				return
			}
		}
	}
}

// readLoop discards client frames and detects disconnects.
func (h *Hub) readLoop(c *streamClient) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func encodeSnapshot(s model.Snapshot) ([]byte, error) {
	return json.Marshal(StreamMessage{Type: MessageTypeSnapshot, Data: s})
}
