package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/notification"
)

// GuestInput carries the host-entered fields of a guest.
type GuestInput struct {
	Name    string  `json:"name"`
	CashIn  float64 `json:"cashIn"`
	CashOut float64 `json:"cashOut"`
}

// AddGuest adds an unauthenticated player to the current session.
func (s *Service) AddGuest(ctx context.Context, gameID, caller uuid.UUID, in GuestInput) (*game.Guest, error) {
	var out *game.Guest
	err := s.updateGuests(ctx, gameID, caller, func(repo game.Repository) error {
		g, err := game.NewGuest(gameID, in.Name, in.CashIn, in.CashOut)
		if err != nil {
			return err
		}
		out = g
		return repo.CreateGuest(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateGuest replaces a guest's name and amounts.
func (s *Service) UpdateGuest(ctx context.Context, gameID, guestID, caller uuid.UUID, in GuestInput) (*game.Guest, error) {
	var out *game.Guest
	err := s.updateGuests(ctx, gameID, caller, func(repo game.Repository) error {
		g, err := loadGuest(ctx, repo, gameID, guestID)
		if err != nil {
			return err
		}
		if err := g.Set(in.Name, in.CashIn, in.CashOut); err != nil {
			return err
		}
		out = g
		return repo.UpdateGuest(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveGuest deletes a guest from the current session.
func (s *Service) RemoveGuest(ctx context.Context, gameID, guestID, caller uuid.UUID) error {
	return s.updateGuests(ctx, gameID, caller, func(repo game.Repository) error {
		if _, err := loadGuest(ctx, repo, gameID, guestID); err != nil {
			return err
		}
		return repo.DeleteGuest(ctx, gameID, guestID)
	})
}

// ListGuests returns the guests of the current session in creation order.
func (s *Service) ListGuests(ctx context.Context, gameID uuid.UUID) ([]*game.Guest, error) {
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}
	return s.store.Games().ListGuests(ctx, gameID)
}

// updateGuests runs apply for the host of a mutable game while holding the
// game lock, then announces the change.
func (s *Service) updateGuests(ctx context.Context, gameID, caller uuid.UUID, apply func(game.Repository) error) error {
	err := s.store.WithinTx(ctx, func(uow game.UnitOfWork) error {
		g, err := lockGame(ctx, uow.Games(), gameID)
		if err != nil {
			return err
		}
		if err := hostCheck(caller)(g); err != nil {
			return err
		}
		return apply(uow.Games())
	})
	if err != nil {
		return err
	}
	s.publish(ctx, notification.NewGameChanged(gameID, notification.KindGuests))
	return nil
}

func loadGuest(ctx context.Context, repo game.Repository, gameID, guestID uuid.UUID) (*game.Guest, error) {
	g, err := repo.GetGuest(ctx, gameID, guestID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: guest %s", game.ErrNotFound, guestID)
	}
	return g, nil
}
