package wshub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

// ClientMessage is a request frame received from a player.
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is an ack (Type "ack", ID set) or a room event.
type ServerMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ConnID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub tracks live connections and the room group each one receives events for.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ConnID] = c
}

// Unregister removes a client from the hub and every group, then closes
// its Send channel.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	close(c.Send)
	delete(h.clients, connID)
	for code, members := range h.groups {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, code)
		}
	}
}

func (h *Hub) JoinRoom(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[roomCode]
	if !ok {
		members = make(map[string]struct{})
		h.groups[roomCode] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) LeaveRoom(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[roomCode]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, roomCode)
	}
}

// Members returns the connections joined to roomCode.
func (h *Hub) Members(roomCode string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.groups[roomCode]))
	for id := range h.groups[roomCode] {
		out = append(out, id)
	}
	return out
}

// Send delivers msg to one connection. Non-blocking: drops if channel full.
func (h *Hub) Send(connID string, msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("marshal server message")
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	return deliver(c, data)
}

func (h *Hub) ToRoom(roomCode, event string, data any) {
	h.broadcast(roomCode, "", ServerMessage{Type: event, Data: data})
}

func (h *Hub) ToRoomExcept(roomCode, exceptConnID, event string, data any) {
	h.broadcast(roomCode, exceptConnID, ServerMessage{Type: event, Data: data})
}

func (h *Hub) broadcast(roomCode, except string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room", roomCode).Str("type", msg.Type).Msg("marshal room event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.groups[roomCode] {
		if id == except {
			continue
		}
		if c, ok := h.clients[id]; ok && !deliver(c, data) {
			log.Warn().Str("room", roomCode).Str("conn", id).Str("type", msg.Type).Msg("send buffer full, event dropped")
		}
	}
}

func deliver(c *Client, data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}
