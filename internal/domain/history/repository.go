package history

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for session history. There is no update or
// delete: history is additive.
type Repository interface {
	InsertSessionSnapshots(ctx context.Context, snapshots []*SessionSnapshot) error
	InsertGuestSnapshots(ctx context.Context, snapshots []*GuestSnapshot) error
	// List* return rows ordered by SnapshottedAt ascending.
	ListSessionSnapshots(ctx context.Context, gameID uuid.UUID) ([]*SessionSnapshot, error)
	ListGuestSnapshots(ctx context.Context, gameID uuid.UUID) ([]*GuestSnapshot, error)
}
