package http

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/domain"
)

const sendBuffer = 256

type client struct {
	id   string
	send chan []byte
}

// Hub tracks open connections and the session group each belongs to. It
// implements app.Notifier: every call is non-blocking, and a client whose
// buffer is full is dropped instead of stalling the session.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	groups  map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		groups:  make(map[string]map[string]struct{}),
	}
}

// Register adds a connection and returns the channel its writer drains.
// The channel is closed when the connection is unregistered or dropped.
func (h *Hub) Register(id string) <-chan []byte {
	c := &client{id: id, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return c.send
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

func (h *Hub) Bind(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connID]; !ok {
		return
	}
	group, ok := h.groups[code]
	if !ok {
		group = make(map[string]struct{})
		h.groups[code] = group
	}
	group[connID] = struct{}{}
}

func (h *Hub) Unbind(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unbindLocked(code, connID)
}

func (h *Hub) Close(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, code)
}

func (h *Hub) Broadcast(code string, msg domain.Message) {
	data, ok := encode(msg)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.groups[code] {
		h.deliverLocked(id, data)
	}
}

func (h *Hub) Unicast(connID string, msg domain.Message) {
	data, ok := encode(msg)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(connID, data)
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliverLocked(id string, data []byte) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("conn_id", id).Msg("ws client too slow, disconnecting")
		h.removeLocked(id)
	}
}

func (h *Hub) removeLocked(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	for code := range h.groups {
		h.unbindLocked(code, id)
	}
	close(c.send)
}

func (h *Hub) unbindLocked(code, connID string) {
	group, ok := h.groups[code]
	if !ok {
		return
	}
	delete(group, connID)
	if len(group) == 0 {
		delete(h.groups, code)
	}
}

func encode(msg domain.Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("encode outbound message")
		return nil, false
	}
	return data, true
}
