// Package websocket pushes core events to connected dashboards.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/chorechart/internal/event"
)

// Message is the wire form of an event. Entity names what changed
// ("instance" or "reward") and ID is that row's id.
type Message struct {
	Type    string    `json:"type"`
	Entity  string    `json:"entity"`
	ID      int64     `json:"id,omitempty"`
	UserID  int64     `json:"user_id"`
	Outcome string    `json:"outcome,omitempty"`
	Points  int       `json:"points,omitempty"`
	At      time.Time `json:"at"`
}

func NewMessage(e event.Event) Message {
	msg := Message{
		Type:    string(e.Type),
		UserID:  e.UserID,
		Outcome: e.Outcome,
		Points:  e.Points,
		At:      e.At,
	}
	switch {
	case e.InstanceID != nil:
		msg.Entity = "instance"
		msg.ID = *e.InstanceID
	case e.RewardID != nil:
		msg.Entity = "reward"
		msg.ID = *e.RewardID
	}
	return msg
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Handle makes the hub an event sink.
func (h *Hub) Handle(_ context.Context, e event.Event) error {
	data, err := json.Marshal(NewMessage(e))
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", e.ID, err)
	}
	h.broadcast(data)
	return nil
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped broadcast for slow clients", "clients", dropped)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
