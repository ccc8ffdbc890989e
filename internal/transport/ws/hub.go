package ws

import (
	"sync"
)

type Conn interface {
	ID() string
	Send(msg Message) error
	Close() error
}

// Hub — маршрутизатор рассылки: соединения и их комнаты.
// Доставка at-most-once, best-effort: ошибки отправки игнорируются.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn                // connID -> conn
	rooms map[string]map[string]struct{} // roomID -> set of connIDs
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]Conn),
		rooms: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.ID()] = c
}

// Remove убирает соединение отовсюду.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, connID)
	for roomID, rs := range h.rooms {
		delete(rs, connID)
		if len(rs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) Join(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[string]struct{})
		h.rooms[roomID] = rs
	}
	rs[connID] = struct{}{}
}

func (h *Hub) Leave(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[roomID]; ok {
		delete(rs, connID)
		if len(rs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast — всем соединениям комнаты, включая отправителя.
func (h *Hub) Broadcast(roomID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID := range h.rooms[roomID] {
		if c, ok := h.conns[connID]; ok {
			_ = c.Send(msg) // best-effort
		}
	}
}

// BroadcastExcept — всем в комнате, кроме одного соединения.
func (h *Hub) BroadcastExcept(roomID string, msg Message, exceptID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID := range h.rooms[roomID] {
		if connID == exceptID {
			continue
		}
		if c, ok := h.conns[connID]; ok {
			_ = c.Send(msg)
		}
	}
}

// BroadcastAll — всем живым соединениям (users_online и т.п.).
func (h *Hub) BroadcastAll(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.conns {
		_ = c.Send(msg)
	}
}

func (h *Hub) BroadcastAllExcept(msg Message, exceptID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, c := range h.conns {
		if connID == exceptID {
			continue
		}
		_ = c.Send(msg)
	}
}

func (h *Hub) Send(connID string, msg Message) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()

	if ok {
		_ = c.Send(msg)
	}
}
