package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// MessageHello is sent once to each client right after it connects.
	MessageHello = "hello"
	// MessageGraphChanged tells clients to refetch /api/graph.
	MessageGraphChanged = "graph-changed"

	sendBuffer   = 16
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is a websocket notification.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Message
}

// Hub tracks connected websocket clients and fans messages out to them.
type Hub struct {
	clients map[string]*client
	logger  *log.Logger
	mu      sync.RWMutex
}

// NewHub returns a hub with no clients.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{clients: make(map[string]*client), logger: logger}
}

// ServeWS upgrades the request and keeps the client registered until it
// disconnects. Messages from the client are ignored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan Message, sendBuffer)}
	c.send <- Message{Type: MessageHello, Data: map[string]string{"clientId": c.id}}
	h.register(c)
	go h.writeLoop(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(c)
}

// Broadcast queues msg for every client. A client whose queue is full misses
// the message.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("client queue full, dropping message", "client", c.id, "type", msg.Type)
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.conn.Close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "client", c.id, "clients", n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	c.conn.Close()
	h.logger.Debug("websocket client disconnected", "client", c.id, "clients", n)
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.logger.Debug("websocket write failed", "client", c.id, "err", err)
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}
