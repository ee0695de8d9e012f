package game

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the session state of a game.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
	StatusEnded  Status = "ended"
)

// Game is one poker game with a single host.
type Game struct {
	ID          uuid.UUID  `json:"id"`
	ShortCode   string     `json:"shortCode"`
	HostID      uuid.UUID  `json:"hostId"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
}

// NewGame creates an active game hosted by hostID.
func NewGame(hostID uuid.UUID, description, shortCode string) *Game {
	now := time.Now().UTC()
	return &Game{
		ID:          uuid.New(),
		ShortCode:   shortCode,
		HostID:      hostID,
		Description: strings.TrimSpace(description),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsHost reports whether userID currently hosts the game.
func (g *Game) IsHost(userID uuid.UUID) bool {
	return g.HostID == userID
}

// Locked reports whether participant-side mutations are frozen.
func (g *Game) Locked() bool {
	return g.Status == StatusClosed
}

// CanTransition validates a session state change.
func (g *Game) CanTransition(to Status) error {
	switch {
	case g.Status == StatusActive && to == StatusClosed,
		g.Status == StatusClosed && to == StatusActive,
		g.Status == StatusActive && to == StatusEnded,
		g.Status == StatusClosed && to == StatusEnded:
		return nil
	}
	return fmt.Errorf("%w: cannot move game from %s to %s", ErrInvalidState, g.Status, to)
}

// RequireHost fails unless caller hosts the game.
func (g *Game) RequireHost(caller uuid.UUID) error {
	if !g.IsHost(caller) {
		return fmt.Errorf("%w: only the host can do this", ErrNotAuthorized)
	}
	return nil
}

// RequireMutable fails when the game is closed or ended.
func (g *Game) RequireMutable() error {
	switch g.Status {
	case StatusClosed:
		return fmt.Errorf("%w: session locked", ErrInvalidState)
	case StatusEnded:
		return fmt.Errorf("%w: game has ended", ErrInvalidState)
	}
	return nil
}

const shortCodeAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

// NewShortCode returns a random lower-case join code of the given length.
// Look-alike characters (l, o, 0, 1) are left out.
func NewShortCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: short code length must be positive", ErrInvalidArgument)
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate short code: %w", err)
	}
	for i, b := range buf {
		buf[i] = shortCodeAlphabet[int(b)%len(shortCodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeShortCode canonicalizes user-entered codes.
func NormalizeShortCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
