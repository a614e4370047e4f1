package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"salesview/pkg/contracts/domain"
	"salesview/pkg/contracts/events"
)

// Hub maintains the set of active clients and broadcasts dataset events
// to them. Clients register on upgrade and unregister when their write
// pump exits.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	quit chan struct{}
	once sync.Once
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Run processes register/unregister/broadcast events until the context is
// cancelled or Shutdown is called. It is meant to run in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client registered", slog.Int("active_connections", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client unregistered", slog.Int("active_connections", count))

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop the message rather than block
					// the hub loop.
					h.logger.Warn("dropping message for slow client")
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			// Close quit too so client pumps blocked on unregister exit.
			h.Shutdown()
			h.shutdownClients()
			return
		case <-h.quit:
			h.shutdownClients()
			return
		}
	}
}

// Shutdown stops the hub loop and disconnects all clients
func (h *Hub) Shutdown() {
	h.once.Do(func() { close(h.quit) })
}

func (h *Hub) shutdownClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.logger.Info("websocket hub stopped")
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event envelope to every connected client
func (h *Hub) Broadcast(messageType string, data interface{}) {
	envelope := events.Envelope{
		Type:      messageType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message",
			slog.String("type", messageType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("broadcast channel full, dropping message",
			slog.String("type", messageType))
	}
}

// NotifyDatasetReplaced announces a new active dataset to all clients
func (h *Hub) NotifyDatasetReplaced(meta domain.DatasetMeta) {
	h.Broadcast(events.TypeDatasetReplaced, events.DatasetReplaced{
		DatasetID: meta.ID,
		Filename:  meta.Filename,
		CleanRows: meta.CleanRows,
	})
}
