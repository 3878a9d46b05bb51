package sse

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// EventUnreadChanged tells a client its unread counts are stale.
const EventUnreadChanged = "unread_changed"

type Event struct {
	Type string `json:"type"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan Event
}

// userMessage targets the clients of the listed users. A nil list targets
// every connected client.
type userMessage struct {
	UserIDs []uuid.UUID
	Event   Event
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *userMessage
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run dispatches registrations and events until ctx is cancelled. On exit
// every client's Send is closed, which ends its stream.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := make(map[uuid.UUID]bool, len(msg.UserIDs))
			for _, id := range msg.UserIDs {
				targets[id] = true
			}
			for _, client := range h.clients {
				if msg.UserIDs != nil && !targets[client.UserID] {
					continue
				}
				select {
				case client.Send <- msg.Event:
				default:
					// a pending event already forces a refresh
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	close(h.done)
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
	}
}

// Register adds client. Once the hub has stopped the client's Send is closed
// straight away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister is a no-op after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotifyUnread nudges the listed users to refresh their unread counts.
// With no ids every client is nudged.
func (h *Hub) NotifyUnread(userIDs ...uuid.UUID) {
	msg := &userMessage{Event: Event{Type: EventUnreadChanged}}
	if len(userIDs) > 0 {
		msg.UserIDs = userIDs
	}
	select {
	case h.broadcast <- msg:
	default:
	}
}
