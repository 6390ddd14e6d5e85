package ports

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arbadacarbaYK/sociostr/internal/livemap"
	"github.com/arbadacarbaYK/sociostr/internal/logging"
)

const (
	// Deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// How long to wait for a pong response before treating the connection as
	// dead.
	pongWait = 60 * time.Second

	// How often to send WebSocket ping frames. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Per-client outgoing message buffer depth.
	sendBufSize = 16
)

// liveMessage is the JSON envelope sent to clients on every broadcast.
type liveMessage struct {
	Event string           `json:"event"`
	Data  snapshotResponse `json:"data"`
}

// Hub fans published snapshots out to connected WebSocket clients. Register
// Hub.Publish as a snapshot listener to drive it.
type Hub struct {
	getSnapshot    func() livemap.Snapshot
	allowedOrigins *DomainSuffixes

	mu      sync.RWMutex
	clients map[*liveClient]struct{}
	closed  bool
}

type liveClient struct {
	conn *websocket.Conn

	// mu guards send and closed. The send channel is never closed; writePump
	// shutdown is signalled through done so queuing a message can never race
	// a channel close.
	mu     sync.Mutex
	send   chan []byte
	done   chan struct{}
	closed bool
}

// trySend queues msg for writePump. Returns false when the client is shut
// down or its buffer is full.
func (c *liveClient) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// shutdown wakes writePump and rejects further sends. Idempotent.
func (c *liveClient) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

func NewHub(getSnapshot func() livemap.Snapshot, allowedOrigins *DomainSuffixes) *Hub {
	return &Hub{
		getSnapshot:    getSnapshot,
		allowedOrigins: allowedOrigins,
		clients:        make(map[*liveClient]struct{}),
	}
}

// Publish sends the snapshot to all connected clients. Clients that cannot
// keep up are disconnected.
func (h *Hub) Publish(snapshot livemap.Snapshot) {
	data, err := json.Marshal(liveMessage{
		Event: "snapshot",
		Data:  snapshotToResponse(snapshot),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*liveClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.trySend(data) {
			h.unregister(c)
		}
	}
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects future connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.shutdown()
		delete(h.clients, c)
	}
}

func (h *Hub) register(c *liveClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *liveClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.shutdown()
	}
	h.mu.Unlock()
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no origin
			return origin == "" || h.allowedOrigins.AnyMatch(origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response
		return
	}

	c := &liveClient{
		conn: conn,
		send: make(chan []byte, sendBufSize),
		done: make(chan struct{}),
	}
	if !h.register(c) {
		conn.Close()
		return
	}
	defer h.unregister(c)

	// Send the current snapshot immediately so the map has data right away
	if data, err := json.Marshal(liveMessage{
		Event: "snapshot",
		Data:  snapshotToResponse(h.getSnapshot()),
	}); err == nil {
		c.trySend(data)
	}

	go c.writePump()
	c.readPump()
}

func MakeLiveHandler(
	hub *Hub,
	logger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(logger),
		sentryMiddleware,
		buildMetricsMiddleware(),
	)

	return middleware(hub.serve)
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump processes control frames and detects disconnects. Blocks until the
// connection closes.
func (c *liveClient) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
