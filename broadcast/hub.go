// Package broadcast implements the process-wide order event channel. Every
// connected client receives every published event; there is no per-topic
// subscription, no acknowledgment and no replay.
package broadcast

import (
	"log"
	"sync"
)

const (
	EventNewOrder           = "newOrder"
	EventOrderStatusUpdated = "orderStatusUpdated"
)

// Event is the wire form pushed to websocket clients.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Publisher is what the controllers see. The hub satisfies it; tests swap in
// a recording fake.
type Publisher interface {
	Publish(name string, payload interface{})
}

// sendBuffer bounds the per-client queue. A client that falls this far
// behind is disconnected rather than allowed to block publishers.
const sendBuffer = 16

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

type Client struct {
	hub  *Hub
	send chan Event
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds a new client to the fan-out set and returns its handle.
func (h *Hub) Register() *Client {
	c := &Client{hub: h, send: make(chan Event, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Publish fans the event out to every connected client without blocking.
// Clients whose queue is full are dropped on the spot.
func (h *Hub) Publish(name string, payload interface{}) {
	ev := Event{Name: name, Payload: payload}

	h.mu.RLock()
	var stalled []*Client
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		log.Printf("broadcast: dropping slow client")
		c.Close()
	}
}

// ClientCount reports the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Events is the client's receive stream. It is closed when the client is
// removed from the hub.
func (c *Client) Events() <-chan Event {
	return c.send
}

// Close removes the client from the hub and closes its event stream. Safe to
// call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		c.hub.mu.Lock()
		delete(c.hub.clients, c)
		c.hub.mu.Unlock()
		close(c.send)
	})
}
