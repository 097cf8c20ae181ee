package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans events out to connected websocket clients, keyed by user.
// It implements Notifier; the api package registers connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	now     func() time.Time
}

// Client wraps one websocket connection. Writes are serialized by the
// client's own mutex; gorilla connections allow one concurrent writer.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		now:     time.Now,
	}
}

// Register attaches a connection to a user's event stream and returns
// the client handle to detach with.
func (h *Hub) Register(userID string, conn *websocket.Conn) *Client {
	c := &Client{conn: conn}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][c] = struct{}{}

	slog.Debug("event client connected", "user", userID)
	return c
}

// Unregister detaches a client. The connection itself is closed by the
// caller that owns it.
func (h *Hub) Unregister(userID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Close tears down every connection.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.clients {
		for c := range set {
			c.conn.Close()
		}
		delete(h.clients, userID)
	}
	return nil
}

func (h *Hub) broadcast(userID string, ev Event) {
	ev.Time = h.now().UTC()

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.mu.Lock()
		err := c.conn.WriteJSON(ev)
		c.mu.Unlock()

		if err != nil {
			slog.Debug("dropping event client", "user", userID, "error", err)
			c.conn.Close()
			h.Unregister(userID, c)
		}
	}
}

// Notifier implementation

func (h *Hub) AssessmentSaved(userID, id string) {
	h.broadcast(userID, Event{Type: EventSaved, ID: id})
}

func (h *Hub) AssessmentDeleted(userID, id string) {
	h.broadcast(userID, Event{Type: EventDeleted, ID: id})
}

func (h *Hub) AssessmentsRefreshed(userID string, count int) {
	h.broadcast(userID, Event{Type: EventRefreshed, Count: count})
}

func (h *Hub) OperationFailed(userID, op string, err error) {
	h.broadcast(userID, Event{Type: EventFailed, Op: op, Message: err.Error()})
}
