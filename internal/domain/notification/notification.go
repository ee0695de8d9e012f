package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind names what changed in a game.
type Kind string

const (
	KindGame         Kind = "game"
	KindParticipants Kind = "participants"
	KindGuests       Kind = "guests"
)

// EventGameChanged is the SSE event name carrying a GameChanged payload.
const EventGameChanged = "game.changed"

// GameChanged signals that rows belonging to a game were committed. It carries
// no row data; receivers re-read the game.
type GameChanged struct {
	GameID     uuid.UUID  `json:"gameId"`
	Kind       Kind       `json:"kind"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
	Status     string     `json:"status,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// NewGameChanged creates an event for gameID.
func NewGameChanged(gameID uuid.UUID, kind Kind) *GameChanged {
	return &GameChanged{GameID: gameID, Kind: kind, OccurredAt: time.Now().UTC()}
}

// ForUser attaches the affected participant.
func (e *GameChanged) ForUser(userID uuid.UUID) *GameChanged {
	e.UserID = &userID
	return e
}

// WithStatus attaches the game status after the change.
func (e *GameChanged) WithStatus(status string) *GameChanged {
	e.Status = status
	return e
}

// Message encodes the event for SSE delivery.
func (e *GameChanged) Message() (*SSEMessage, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode game event: %w", err)
	}
	return NewSSEMessage(EventGameChanged, data), nil
}

// DecodeGameChanged parses an event produced by Message or by a peer instance.
func DecodeGameChanged(data []byte) (*GameChanged, error) {
	var e GameChanged
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode game event: %w", err)
	}
	if e.GameID == uuid.Nil {
		return nil, errors.New("decode game event: missing game id")
	}
	return &e, nil
}

// GameGroup is the SSE group every watcher of gameID joins.
func GameGroup(gameID uuid.UUID) string {
	return "game:" + gameID.String()
}

// SSEClient represents an active SSE connection
type SSEClient struct {
	ClientID    string
	UserID      *string
	Groups      []string
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a new SSE client
func NewSSEClient(clientID string, userID *string, groups []string) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		UserID:      userID,
		Groups:      groups,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Close closes the client's message channel
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
