package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/lifecycle/pkg/metrics"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Message types exchanged over the WebSocket.
const (
	MessageFrame     = "frame"
	MessageError     = "error"
	MessageIncrement = "increment"
	MessageEvent     = "event"
)

// ClientMessage is a message sent by a live client.
type ClientMessage struct {
	Type string `json:"type"`
	HID  string `json:"hid,omitempty"`
}

// frameMessage is the JSON sent to clients for every frame.
type frameMessage struct {
	Type string `json:"type"`
	Frame
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// enqueue queues data for the write pump. It reports whether the queue was
// full; data for a closed client is dropped.
func (c *client) enqueue(data []byte) (full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return false
	default:
		return true
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks live clients and pushes frames to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]*client
	upgrader websocket.Upgrader
	live     *Live
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewHub creates a hub serving live. live may be set later with SetLive,
// before the first connection.
func NewHub(live *Live, m *metrics.Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Hub{
		clients: make(map[uuid.UUID]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		live:    live,
		metrics: m,
		logger:  logger.With("component", "hub"),
	}
}

// SetLive sets the demo the hub forwards client messages to.
func (h *Hub) SetLive(live *Live) {
	h.live = live
}

// HandleWebSocket upgrades the request and serves the client until it
// disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.RecordWebSocketError("upgrade")
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	// The first frame is queued before the client becomes visible to
	// broadcasts, so it is always delivered first.
	frame, err := h.live.Frame(r.Context())
	if err != nil {
		h.logger.Warn("initial frame failed", "client", c.id, "error", err)
		conn.Close()
		return
	}
	c.enqueue(encodeFrame(frame))

	h.register(c)
	go h.writePump(c)
	h.readPump(r.Context(), c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.metrics.RecordClientConnect()
	h.logger.Info("client connected", "client", c.id)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if ok {
		c.close()
		h.metrics.RecordClientDisconnect()
		h.logger.Info("client disconnected", "client", c.id)
	}
}

// readPump reads client messages until the connection fails.
func (h *Hub) readPump(ctx context.Context, c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.metrics.RecordWebSocketError("read")
				h.logger.Error("read error", "client", c.id, "error", err)
			}
			return
		}
		h.handle(ctx, c, msg)
	}
}

func (h *Hub) handle(ctx context.Context, c *client, msg ClientMessage) {
	var err error
	switch msg.Type {
	case MessageIncrement:
		_, err = h.live.Increment(ctx)
	case MessageEvent:
		_, err = h.live.Event(ctx, msg.HID)
	default:
		err = errors.New("unknown message type " + msg.Type)
	}
	h.metrics.RecordEvent(err)

	if err != nil {
		h.logger.Warn("client message failed", "client", c.id, "type", msg.Type, "error", err)
		data, _ := json.Marshal(errorMessage{Type: MessageError, Error: err.Error()})
		c.enqueue(data)
	}
}

// writePump writes queued messages and keeps the connection alive.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.metrics.RecordWebSocketError("write")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast queues frame for every connected client. Clients that cannot
// keep up are disconnected.
func (h *Hub) Broadcast(frame Frame) {
	data := encodeFrame(frame)

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if c.enqueue(data) {
			h.logger.Warn("client too slow, disconnecting", "client", c.id)
			h.metrics.RecordWebSocketError("slow_client")
			h.unregister(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func encodeFrame(f Frame) []byte {
	data, err := json.Marshal(frameMessage{Type: MessageFrame, Frame: f})
	if err != nil {
		// Frame holds only strings and ints.
		panic(err)
	}
	return data
}
