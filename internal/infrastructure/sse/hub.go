package sse

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/domain/notification"
)

// Hub manages SSE clients and fans game events out to the watchers of each
// game.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*notification.SSEClient
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*notification.SSEClient),
		logger:  logger.With().Str("component", "sse_hub").Logger(),
	}
}

func (h *Hub) Register(client *notification.SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		c.Close()
		delete(h.clients, clientID)
	}
}

// Subscribe registers a client watching gameID.
func (h *Hub) Subscribe(gameID uuid.UUID, clientID string, userID *string) *notification.SSEClient {
	client := notification.NewSSEClient(clientID, userID, []string{notification.GameGroup(gameID)})
	h.Register(client)
	return client
}

func (h *Hub) Unsubscribe(clientID string) {
	h.Unregister(clientID)
}

// Publish delivers event to every watcher of its game. Slow clients whose
// buffer is full miss the message.
func (h *Hub) Publish(_ context.Context, event *notification.GameChanged) error {
	msg, err := event.Message()
	if err != nil {
		return err
	}
	if dropped := h.BroadcastToGroup(notification.GameGroup(event.GameID), msg); dropped > 0 {
		h.logger.Warn().Str("game_id", event.GameID.String()).Int("dropped", dropped).Msg("sse clients lagging")
	}
	return nil
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastToGroup sends message to every client in group and returns how
// many could not accept it.
func (h *Hub) BroadcastToGroup(group string, message *notification.SSEMessage) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for _, c := range h.clients {
		for _, g := range c.Groups {
			if g == group {
				if !trySend(c, message) {
					dropped++
				}
				break
			}
		}
	}
	return dropped
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func trySend(c *notification.SSEClient, msg *notification.SSEMessage) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
