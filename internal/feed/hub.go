package feed

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pleimann/camel-touch/internal/gesture"
	"github.com/pleimann/camel-touch/internal/utils"
)

// sendBuffer is how many messages a client may fall behind before it is dropped
const sendBuffer = 16

// Message is the JSON pushed to clients for every recognized gesture
type Message struct {
	Type    string `json:"type"`
	Devices []int  `json:"devices"`
	Tick    uint32 `json:"tick"`
}

// NewMessage converts a gesture into its wire form
func NewMessage(g gesture.Gesture) Message {
	devices := g.Devices
	if devices == nil {
		devices = []int{}
	}
	return Message{Type: g.Type.String(), Devices: devices, Tick: uint32(g.Tick)}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub fans gestures out to connected websocket clients
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Publish sends a gesture to every client. Clients whose buffer is full are
// disconnected rather than blocking the caller.
func (h *Hub) Publish(g gesture.Gesture) {
	data, err := json.Marshal(NewMessage(g))
	if err != nil {
		utils.Warn("feed: failed to encode gesture: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			utils.Verbose("feed: dropping slow client")
			delete(h.clients, c)
			c.close()
		}
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// Close disconnects all clients
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
