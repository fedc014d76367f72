package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout    = 10 * time.Second
	clientSendDepth = 32
)

// Presence wire event names.
const (
	NamePresenceOnline  = "presence:online"
	NamePresenceOffline = "presence:offline"
)

// presenceNotice is broadcast when a client joins or leaves the hub.
type presenceNotice struct {
	ClientID  string `json:"client_id"`
	Developer string `json:"developer"`
}

// Hub relays bus events to connected websocket clients and announces
// client presence. One writer goroutine runs per connection; slow
// clients are disconnected instead of stalling the broadcast.
type Hub struct {
	bus *Bus

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	id        string
	developer string
	conn      *websocket.Conn
	send      chan Envelope
	closeOnce sync.Once
}

// NewHub creates a hub over the given bus.
func NewHub(bus *Bus) *Hub {
	return &Hub{
		bus:     bus,
		clients: make(map[*hubClient]struct{}),
	}
}

// Run pumps bus events to all connected clients until the context is
// cancelled or the bus closes.
func (h *Hub) Run(ctx context.Context) {
	sub := h.bus.Subscribe(0)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			env, err := Encode(e)
			if err != nil {
				log.Printf("hub: dropping unencodable event %s: %v", e.Name(), err)
				continue
			}
			h.broadcast(env)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleConnection registers an upgraded websocket connection and
// blocks until the client disconnects.
func (h *Hub) HandleConnection(conn *websocket.Conn, developer string) {
	c := &hubClient{
		id:        uuid.New().String(),
		developer: developer,
		conn:      conn,
		send:      make(chan Envelope, clientSendDepth),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.broadcastPresence(NamePresenceOnline, c)
	go c.writeLoop()

	// Reader: the feed is one-way, but reading surfaces disconnects
	// and keeps control frames flowing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()

	h.broadcastPresence(NamePresenceOffline, c)
}

func (h *Hub) broadcastPresence(name string, c *hubClient) {
	raw, err := json.Marshal(presenceNotice{ClientID: c.id, Developer: c.developer})
	if err != nil {
		return
	}
	h.broadcast(Envelope{Event: name, Payload: raw})
}

func (h *Hub) broadcast(env Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- env:
		default:
			// Slow client: drop the connection, never the broadcast.
			delete(h.clients, c)
			c.close()
		}
	}
}

func (c *hubClient) writeLoop() {
	for env := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(env); err != nil {
			log.Printf("hub: write to client %s failed: %v", c.id, err)
			c.conn.Close()
			return
		}
	}
	c.conn.Close()
}

func (c *hubClient) close() {
	c.closeOnce.Do(func() { close(c.send) })
}
