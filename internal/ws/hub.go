package ws

import (
	"context"
	"encoding/json"
	"sync"

	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
)

// Hub keeps the open connections per user and fans engine events out to them.
// One user may have several devices connected.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

// Run subscribes the hub to the engine event channel. It returns once the
// subscription is set up; delivery stops when ctx is cancelled.
func (h *Hub) Run(ctx context.Context, sub events.Subscriber) error {
	return sub.Subscribe(ctx, events.Channel, h.Dispatch)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	n := len(set)
	h.mu.Unlock()

	Connections.Inc()
	logger.Debug("ws client registered", "user_id", c.UserID, "connections", n)
}

// unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.Send)
	Connections.Dec()
	logger.Debug("ws client unregistered", "user_id", c.UserID)
}

// Dispatch forwards ev to every connection of ev.UserID. A client whose buffer
// is full misses the event; the next state read is authoritative anyway.
func (h *Hub) Dispatch(ev events.Event) {
	msg, err := json.Marshal(Message{Type: ev.Type, Payload: ev.Payload})
	if err != nil {
		logger.Warn("ws marshal event failed", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[ev.UserID] {
		select {
		case c.Send <- msg:
			Delivered.WithLabelValues(ev.Type).Inc()
		default:
			Dropped.Inc()
			logger.Warn("ws send buffer full, event dropped", "user_id", ev.UserID, "type", ev.Type)
		}
	}
}

// Connected returns the number of open connections of a user.
func (h *Hub) Connected(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
