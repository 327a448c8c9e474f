package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/models"
)

// Recipient identifies the profile a connection receives events for
type Recipient struct {
	ID   int64
	Role models.Role
}

func (r Recipient) String() string {
	return fmt.Sprintf("%s:%d", r.Role, r.ID)
}

// Event is the frame written to connected clients
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type delivery struct {
	recipient Recipient
	event     Event
}

// Hub tracks connected clients per recipient and fans events out to them
type Hub struct {
	// Registered clients organized by recipient
	clients map[Recipient]map[*Client]bool

	// Outbound events waiting to be delivered
	broadcast chan delivery

	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[Recipient]map[*Client]bool),
		broadcast:  make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and deliveries until ctx is cancelled, then
// closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.recipient]; !ok {
		h.clients[client.recipient] = make(map[*Client]bool)
	}
	h.clients[client.recipient][client] = true

	h.logger.Info().
		Str("recipient", client.recipient.String()).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.recipient]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.recipient)
	}

	h.logger.Info().
		Str("recipient", client.recipient.String()).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			h.removeLocked(client)
		}
	}
}

func (h *Hub) deliver(d delivery) {
	data, err := json.Marshal(d.event)
	if err != nil {
		h.logger.Error().Err(err).Str("recipient", d.recipient.String()).Msg("Failed to marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[d.recipient] {
		select {
		case client.send <- data:
		default:
			// slow consumer, drop the connection
			h.removeLocked(client)
		}
	}
}

// Publish queues an event for every connection of recipient. It never
// blocks; events are dropped when the queue is full.
func (h *Hub) Publish(recipient Recipient, eventType string, data interface{}) {
	d := delivery{
		recipient: recipient,
		event:     Event{Type: eventType, Data: data, Timestamp: time.Now()},
	}
	select {
	case h.broadcast <- d:
	default:
		h.logger.Warn().Str("recipient", recipient.String()).Str("type", eventType).Msg("Hub queue full, dropping event")
	}
}

// ClientCount returns the number of open connections for recipient
func (h *Hub) ClientCount(recipient Recipient) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[recipient])
}
