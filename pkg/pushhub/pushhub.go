// Package pushhub fans media list updates out to connected viewers
// over websockets using the channel-based broadcast pattern. Every
// published list fully replaces what a viewer displays, so the hub
// keeps only the latest list and sends it to clients as they connect.
package pushhub

import (
	"encoding/json"
	"sync"

	"github.com/voicemedia/go-voicemedia/internal/log"
	"github.com/voicemedia/go-voicemedia/pkg/mediafeed"
)

// Hub maintains the set of connected viewers and broadcasts media
// lists to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	latest []byte
}

// New creates a new Hub.
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			latest := h.latest
			h.mu.Unlock()
			log.Info("push client connected", "total", count)

			// New viewers start from the current list.
			if latest != nil {
				select {
				case client.send <- latest:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("push client disconnected", "remaining", count)

		case payload := <-h.broadcast:
			h.mu.Lock()
			h.latest = payload
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow client; drop it rather than stall the feed.
					close(client.send)
					delete(h.clients, client)
					log.Warn("dropped slow push client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts a media list to all connected viewers.
func (h *Hub) Publish(items []mediafeed.Item) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- payload:
	default:
		log.Warn("push broadcast channel full, dropping update")
	}
	return nil
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
