package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Publisher

import (
	"context"

	"github.com/google/uuid"
)

// Publisher delivers change events. Delivery is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event *GameChanged) error
}

// Subscriber manages SSE watchers of a game.
type Subscriber interface {
	Subscribe(gameID uuid.UUID, clientID string, userID *string) *SSEClient
	Unsubscribe(clientID string)
}
