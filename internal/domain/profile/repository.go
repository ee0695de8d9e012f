package profile

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Resolver

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for profiles and their profit audit trail.
type Repository interface {
	// Upsert inserts p, or fills in a missing display name on an existing row.
	Upsert(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Profile, error)
	// ApplyProfitDeltas adds each record's delta to its user's net profit and
	// stores the record. Users without a profile get one.
	ApplyProfitDeltas(ctx context.Context, records []*ProfitRecord) error
	ListProfitRecords(ctx context.Context, userID uuid.UUID) ([]*ProfitRecord, error)
	// ListLeaderboard returns public profiles by net profit, highest first.
	ListLeaderboard(ctx context.Context, limit int) ([]*Profile, error)
}

// Identity is the resolved presentation of a user.
type Identity struct {
	UserID uuid.UUID `json:"userId"`
	Label  string    `json:"label"`
	Handle string    `json:"handle,omitempty"`
}

// Resolver maps user ids to display identities. Unknown ids resolve to a
// placeholder label, never an error.
type Resolver interface {
	Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Identity, error)
}
