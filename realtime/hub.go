// Package realtime fans committed cart state out to every device connected
// to a session's room.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Event types
const (
	EventSessionJoined = "session_joined"
	EventCartUpdated   = "cart_updated"
	EventError         = "error"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client wraps one websocket connection. Writes are serialized so the read
// loop and broadcasts never interleave frames.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) Send(event string, data interface{}) error {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// SendError delivers a private error event; failures are ignored since the
// connection is already in trouble.
func (c *Client) SendError(message string) {
	_ = c.Send(EventError, map[string]string{"message": message})
}

func (c *Client) Close() {
	c.conn.Close()
}

// Hub is the registry of session rooms. Rooms appear when the first member
// joins and disappear when the last one leaves.
type Hub struct {
	mu    sync.Mutex
	rooms map[uint]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uint]map[*Client]bool)}
}

func (h *Hub) Join(sessionID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[sessionID] = room
	}
	room[c] = true
}

// Leave removes the client from every room it had joined.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
}

// RoomSize reports the current member count of a session's room.
func (h *Hub) RoomSize(sessionID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[sessionID])
}

// BroadcastCartUpdate pushes the committed cart to every room member,
// including whichever connection triggered the mutation. A peer that fails
// to take the write is dropped from the room; it can reconnect and rejoin
// to recover.
func (h *Hub) BroadcastCartUpdate(sessionID uint, cart interface{}) {
	h.mu.Lock()
	members := make([]*Client, 0, len(h.rooms[sessionID]))
	for c := range h.rooms[sessionID] {
		members = append(members, c)
	}
	h.mu.Unlock()

	for _, c := range members {
		if err := c.Send(EventCartUpdated, cart); err != nil {
			utils.ErrorLogger.Printf("Dropping realtime peer on session %d: %v", sessionID, err)
			h.Leave(c)
			c.Close()
		}
	}
}
