// Package ws pushes backend events to connected browsers. Pages open one
// WebSocket to this process and join the rooms they care about; the relay
// forwards backend pushes into those rooms.
package ws

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
)

// Message is the frame pushed to browsers: the backend event name plus its
// payload, re-encoded as-is.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Room names scope broadcasts to one restaurant's staff or one table's
// customers.
func RestaurantRoom(id string) string { return "restaurant:" + id }
func TableRoom(id string) string      { return "table:" + id }

// SplitRoom returns the kind ("restaurant" or "table") and id of a room name.
func SplitRoom(room string) (kind, id string) {
	kind, id, _ = strings.Cut(room, ":")
	return kind, id
}

// Hub maintains the set of connected browsers and their room memberships.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	logger  *slog.Logger

	// OnFirstJoin and OnLastLeave fire when a room gains its first member or
	// loses its last one. The relay uses them to mirror room membership on
	// the backend channel. Set them before serving connections.
	OnFirstJoin func(room string)
	OnLastLeave func(room string)
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and every room it joined, then
// closes its send channel.
func (h *Hub) Unregister(c *Client) {
	var emptied []string

	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		for room, members := range h.rooms {
			if _, in := members[c]; in {
				delete(members, c)
				if len(members) == 0 {
					delete(h.rooms, room)
					emptied = append(emptied, room)
				}
			}
		}
	}
	h.mu.Unlock()

	for _, room := range emptied {
		if h.OnLastLeave != nil {
			h.OnLastLeave(room)
		}
	}
}

// Join adds a client to a room. Joining a room twice is a no-op.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	members := h.rooms[room]
	first := len(members) == 0
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	h.mu.Unlock()

	if first && h.OnFirstJoin != nil {
		h.OnFirstJoin(room)
	}
}

// Leave removes a client from a room. Leaving a room it never joined is a
// no-op.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	members := h.rooms[room]
	if _, in := members[c]; !in {
		h.mu.Unlock()
		return
	}
	delete(members, c)
	last := len(members) == 0
	if last {
		delete(h.rooms, room)
	}
	h.mu.Unlock()

	if last && h.OnLastLeave != nil {
		h.OnLastLeave(room)
	}
}

// Broadcast sends a message to every client in any of the given rooms, once
// per client even when it sits in several of them. With no rooms given the
// message goes to every connected client.
func (h *Hub) Broadcast(msg Message, rooms ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "event", msg.Event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.clients
	if len(rooms) > 0 {
		targets = make(map[*Client]struct{})
		for _, room := range rooms {
			for c := range h.rooms[room] {
				targets[c] = struct{}{}
			}
		}
	}

	for c := range targets {
		select {
		case c.send <- data:
		default:
			// Client buffer full; drop rather than block the relay
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of members in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
