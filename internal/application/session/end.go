package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/notification"
	"github.com/homegame/homegame/internal/domain/profile"
	"github.com/homegame/homegame/internal/domain/settlement"
)

// EndResult is the final settlement of a game.
type EndResult struct {
	Game   *game.Game         `json:"game"`
	Payout *settlement.Payout `json:"payout"`
}

// End settles the game once, adds each player's net to their lifetime profit
// and marks the game ended. Guests settle but carry no lifetime profit. Any
// failure leaves the game and every profile untouched.
//
// A game ended from closed is not snapshotted again; the closing snapshot
// already covers that session.
func (s *Service) End(ctx context.Context, gameID, caller uuid.UUID) (*EndResult, error) {
	var result EndResult
	err := s.store.WithinTx(ctx, func(uow game.UnitOfWork) error {
		g, err := lockGame(ctx, uow.Games(), gameID)
		if err != nil {
			return err
		}
		if err := g.RequireHost(caller); err != nil {
			return err
		}
		if err := g.CanTransition(game.StatusEnded); err != nil {
			return err
		}

		roster, err := s.roster(ctx, uow, gameID)
		if err != nil {
			return err
		}
		if roster.Len() < 2 {
			return fmt.Errorf("%w: %d settle-eligible parties", game.ErrInsufficientParticipants, roster.Len())
		}
		payout, err := roster.Settle()
		if err != nil {
			return err
		}

		now := s.now()
		records := make([]*profile.ProfitRecord, 0, len(payout.Players))
		for _, pl := range payout.Players {
			if roster.IsGuest(pl.Name) {
				continue
			}
			userID, ok := roster.UserID(pl.Name)
			if !ok {
				return fmt.Errorf("%w: no participant for %q", game.ErrMappingFailure, pl.Name)
			}
			records = append(records, profile.NewProfitRecord(userID, gameID, pl.Net, now))
		}

		if g.Status == game.StatusActive {
			if _, err := s.recorder.Record(ctx, uow, g, now); err != nil {
				return err
			}
		}
		if err := uow.Profiles().ApplyProfitDeltas(ctx, records); err != nil {
			return fmt.Errorf("apply profit: %w", err)
		}

		g.Status = game.StatusEnded
		g.EndedAt = &now
		g.UpdatedAt = now
		if err := uow.Games().UpdateGame(ctx, g); err != nil {
			return err
		}
		result = EndResult{Game: g, Payout: payout}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("game_id", gameID.String()).Int("players", len(result.Payout.Players)).Msg("game ended")
	s.publish(ctx, notification.NewGameChanged(gameID, notification.KindGame).WithStatus(string(game.StatusEnded)))
	return &result, nil
}

func (s *Service) roster(ctx context.Context, uow game.UnitOfWork, gameID uuid.UUID) (*game.Roster, error) {
	participants, err := uow.Games().ListParticipants(ctx, gameID, game.ParticipantFilter{})
	if err != nil {
		return nil, err
	}
	guests, err := uow.Games().ListGuests(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	resolved, err := profile.ResolveOrPlaceholder(ctx, s.resolver, ids)
	if err != nil {
		s.logger.Warn().Err(err).Str("game_id", gameID.String()).Msg("profile lookup failed, using placeholder names")
	}
	game.NameParticipants(participants, resolved)
	return game.NewRoster(participants, guests), nil
}
