package game

import (
	"context"

	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/history"
	"github.com/homegame/homegame/internal/domain/profile"
)

// ParticipantFilter narrows ListParticipants.
type ParticipantFilter struct {
	Status *ParticipantStatus
}

// Membership is a game seen from one participant.
type Membership struct {
	Game   *Game             `json:"game"`
	Status ParticipantStatus `json:"status"`
}

// Repository defines persistence for games, participants and guests.
// Getters return nil, nil when the row does not exist.
type Repository interface {
	CreateGame(ctx context.Context, g *Game) error
	GetGame(ctx context.Context, id uuid.UUID) (*Game, error)
	// LockGame reads a game and, inside WithinTx, blocks other writers of
	// that game until the transaction ends.
	LockGame(ctx context.Context, id uuid.UUID) (*Game, error)
	GetGameByShortCode(ctx context.Context, code string) (*Game, error)
	UpdateGame(ctx context.Context, g *Game) error
	// ListGamesForUser returns the user's memberships, newest game first.
	ListGamesForUser(ctx context.Context, userID uuid.UUID) ([]*Membership, error)

	CreateParticipant(ctx context.Context, p *Participant) error
	GetParticipant(ctx context.Context, gameID, userID uuid.UUID) (*Participant, error)
	// ListParticipants returns rows ordered by join time.
	ListParticipants(ctx context.Context, gameID uuid.UUID, filter ParticipantFilter) ([]*Participant, error)
	UpdateParticipant(ctx context.Context, p *Participant) error
	// ClearAmounts sets every participant's confirmed and requested amounts to nil.
	ClearAmounts(ctx context.Context, gameID uuid.UUID) error

	CreateGuest(ctx context.Context, g *Guest) error
	GetGuest(ctx context.Context, gameID, guestID uuid.UUID) (*Guest, error)
	ListGuests(ctx context.Context, gameID uuid.UUID) ([]*Guest, error)
	UpdateGuest(ctx context.Context, g *Guest) error
	DeleteGuest(ctx context.Context, gameID, guestID uuid.UUID) error
	DeleteGuests(ctx context.Context, gameID uuid.UUID) error
}

// UnitOfWork groups the repositories that share one connection or transaction.
type UnitOfWork interface {
	Games() Repository
	History() history.Repository
	Profiles() profile.Repository
}

// Store is the data store collaborator. WithinTx runs fn in one transaction
// and rolls back when fn returns an error.
type Store interface {
	UnitOfWork
	WithinTx(ctx context.Context, fn func(UnitOfWork) error) error
}
