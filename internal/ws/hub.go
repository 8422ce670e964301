package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is the envelope for every frame on the real-time channel, in both
// directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub is the presence registry: it maps a user ID to at most one live
// connection. Reconnects overwrite the previous mapping (last connection
// wins); there is no multi-device fan-out. All delivery is best-effort.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Connect registers the client under userID, replacing any previous
// connection for that identity, and broadcasts the updated online list.
func (h *Hub) Connect(userID string, c *Client) {
	c.setUserID(userID)

	h.mu.Lock()
	if old, ok := h.clients[userID]; ok && old != c {
		old.closeSend()
	}
	h.clients[userID] = c
	h.mu.Unlock()

	log.Printf("[Hub] user connected: %s", userID)
	h.broadcastOnlineUsers()
}

// Disconnect removes the client's mapping, but only if the identity still
// points at this exact client. If the user reconnected elsewhere before this
// connection's close was processed, the newer mapping is left untouched.
func (h *Hub) Disconnect(c *Client) {
	id := c.identity()
	if id == "" {
		return
	}

	h.mu.Lock()
	removed := false
	if cur, ok := h.clients[id]; ok && cur == c {
		delete(h.clients, id)
		removed = true
	}
	h.mu.Unlock()

	if removed {
		log.Printf("[Hub] user disconnected: %s", id)
		h.broadcastOnlineUsers()
	}
}

// OnlineUsers returns the IDs of all currently connected identities.
func (h *Hub) OnlineUsers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// Push delivers an event to the identity's live connection, if any.
// A missing or saturated connection drops the event silently.
func (h *Hub) Push(userID, event string, payload any) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("[Hub] marshal %s event: %v", event, err)
		return
	}

	h.mu.Lock()
	c, ok := h.clients[userID]
	h.mu.Unlock()
	if !ok {
		return
	}
	c.trySend(frame)
}

// Broadcast delivers an event to every live connection.
func (h *Hub) Broadcast(event string, payload any) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("[Hub] marshal %s event: %v", event, err)
		return
	}

	h.mu.Lock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.trySend(frame)
	}
}

func (h *Hub) broadcastOnlineUsers() {
	h.Broadcast("getOnlineUsers", h.OnlineUsers())
}

func marshalEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: event, Data: data})
}
