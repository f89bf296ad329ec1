package http

import (
	"sync"

	"github.com/rs/zerolog/log"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// AllRealms subscribes a client to every realm.
const AllRealms = "*"

// Client represents a connected SSE client.
type Client struct {
	realm string
	send  chan []byte
}

// Hub manages all active SSE client connections, grouped by realm.
// Single-instance model: all broadcast is in-process.
type Hub struct {
	mu      sync.RWMutex
	clients map[string][]*Client // realm -> clients
}

// NewHub creates a new SSE Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string][]*Client),
	}
}

// Register adds a new SSE client for realm.
func (h *Hub) Register(realm string, send chan []byte) *Client {
	c := &Client{realm: realm, send: send}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[realm] = append(h.clients[realm], c)

	log.Debug().Str("realm", realm).Msg("SSE client connected")
	return c
}

// Unregister removes an SSE client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[c.realm]
	updated := make([]*Client, 0, len(clients))
	for _, existing := range clients {
		if existing != c {
			updated = append(updated, existing)
		}
	}

	if len(updated) == 0 {
		delete(h.clients, c.realm)
	} else {
		h.clients[c.realm] = updated
	}

	log.Debug().Str("realm", c.realm).Msg("SSE client disconnected")
}

// Broadcast sends an interpretation to the clients of its realm and to
// AllRealms subscribers. Satisfies application.Broadcaster.
func (h *Hub) Broadcast(realmID string, in *domain.Interpretation) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := len(h.clients[realmID]) + len(h.clients[AllRealms])
	if targets == 0 {
		return
	}

	msg := buildSSEMessage(in)
	for _, realm := range []string{realmID, AllRealms} {
		for _, c := range h.clients[realm] {
			select {
			case c.send <- msg:
			default:
				// Client is slow/disconnected, skip
				log.Warn().Str("realm", realm).Msg("SSE client send buffer full, skipping")
			}
		}
	}
}

// ConnectedCount returns the total number of connected SSE clients.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}
