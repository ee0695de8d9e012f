package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/notification"
	"github.com/homegame/homegame/internal/domain/profile"
)

const shortCodeAttempts = 8

// Service drives the session state machine of a game: create, close, reopen,
// end and host transfer.
type Service struct {
	store           game.Store
	resolver        profile.Resolver
	publisher       notification.Publisher
	recorder        *Recorder
	shortCodeLength int
	now             func() time.Time
	logger          zerolog.Logger
}

// NewService creates a session service.
func NewService(
	store game.Store,
	resolver profile.Resolver,
	publisher notification.Publisher,
	recorder *Recorder,
	shortCodeLength int,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:           store,
		resolver:        resolver,
		publisher:       publisher,
		recorder:        recorder,
		shortCodeLength: shortCodeLength,
		now:             func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		logger:          logger.With().Str("service", "session").Logger(),
	}
}

// CreateGame opens a new active game with the host seated as an approved
// participant.
func (s *Service) CreateGame(ctx context.Context, hostID uuid.UUID, description string) (*game.Game, error) {
	if hostID == uuid.Nil {
		return nil, fmt.Errorf("%w: host is required", game.ErrInvalidArgument)
	}

	for attempt := 1; ; attempt++ {
		code, err := s.freeShortCode(ctx)
		if err != nil {
			return nil, err
		}
		g := game.NewGame(hostID, description, code)
		err = s.store.WithinTx(ctx, func(uow game.UnitOfWork) error {
			if err := uow.Games().CreateGame(ctx, g); err != nil {
				return err
			}
			return uow.Games().CreateParticipant(ctx, game.NewApprovedParticipant(g.ID, hostID))
		})
		if errors.Is(err, game.ErrConflict) && attempt < shortCodeAttempts {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create game: %w", err)
		}
		s.logger.Info().Str("game_id", g.ID.String()).Str("host_id", hostID.String()).Msg("game created")
		return g, nil
	}
}

func (s *Service) freeShortCode(ctx context.Context) (string, error) {
	for i := 0; i < shortCodeAttempts; i++ {
		code, err := game.NewShortCode(s.shortCodeLength)
		if err != nil {
			return "", err
		}
		existing, err := s.store.Games().GetGameByShortCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free short code after %d attempts", shortCodeAttempts)
}

// Close snapshots the session and locks the ledger.
func (s *Service) Close(ctx context.Context, gameID, caller uuid.UUID) (*game.Game, error) {
	g, err := s.transition(ctx, gameID, caller, game.StatusClosed, func(uow game.UnitOfWork, g *game.Game) error {
		_, err := s.recorder.Record(ctx, uow, g, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("game_id", gameID.String()).Msg("session closed")
	return g, nil
}

// Reopen starts a fresh session: every participant's amounts are cleared and
// the guests are removed.
func (s *Service) Reopen(ctx context.Context, gameID, caller uuid.UUID) (*game.Game, error) {
	g, err := s.transition(ctx, gameID, caller, game.StatusActive, func(uow game.UnitOfWork, g *game.Game) error {
		if err := uow.Games().ClearAmounts(ctx, g.ID); err != nil {
			return err
		}
		return uow.Games().DeleteGuests(ctx, g.ID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("game_id", gameID.String()).Msg("session reopened")
	return g, nil
}

// TransferHost hands the host role to another approved participant.
func (s *Service) TransferHost(ctx context.Context, gameID, caller, newHostID uuid.UUID) (*game.Game, error) {
	var out *game.Game
	err := s.store.WithinTx(ctx, func(uow game.UnitOfWork) error {
		g, err := lockGame(ctx, uow.Games(), gameID)
		if err != nil {
			return err
		}
		if err := g.RequireHost(caller); err != nil {
			return err
		}
		if newHostID == caller {
			return fmt.Errorf("%w: already the host", game.ErrInvalidArgument)
		}
		if g.Status == game.StatusEnded {
			return fmt.Errorf("%w: game has ended", game.ErrInvalidState)
		}
		p, err := uow.Games().GetParticipant(ctx, gameID, newHostID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: participant %s", game.ErrNotFound, newHostID)
		}
		if p.Status != game.ParticipantApproved {
			return fmt.Errorf("%w: new host must be an approved participant", game.ErrInvalidState)
		}

		g.HostID = newHostID
		g.UpdatedAt = time.Now().UTC()
		if err := uow.Games().UpdateGame(ctx, g); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("game_id", gameID.String()).Str("host_id", newHostID.String()).Msg("host transferred")
	s.publish(ctx, notification.NewGameChanged(gameID, notification.KindGame).WithStatus(string(out.Status)))
	return out, nil
}

// GetGame returns a game or ErrNotFound.
func (s *Service) GetGame(ctx context.Context, gameID uuid.UUID) (*game.Game, error) {
	return getGame(ctx, s.store.Games(), gameID)
}

// GetGameByCode resolves an invite code.
func (s *Service) GetGameByCode(ctx context.Context, code string) (*game.Game, error) {
	code = game.NormalizeShortCode(code)
	g, err := s.store.Games().GetGameByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: no game with code %q", game.ErrNotFound, code)
	}
	return g, nil
}

// ListGamesForUser returns the user's games, newest first.
func (s *Service) ListGamesForUser(ctx context.Context, userID uuid.UUID) ([]*game.Membership, error) {
	return s.store.Games().ListGamesForUser(ctx, userID)
}

// transition applies a host-only status change. apply runs in the same
// transaction, after the game row has been re-read and checked.
func (s *Service) transition(ctx context.Context, gameID, caller uuid.UUID, to game.Status, apply func(game.UnitOfWork, *game.Game) error) (*game.Game, error) {
	var out *game.Game
	err := s.store.WithinTx(ctx, func(uow game.UnitOfWork) error {
		g, err := lockGame(ctx, uow.Games(), gameID)
		if err != nil {
			return err
		}
		if err := g.RequireHost(caller); err != nil {
			return err
		}
		if err := g.CanTransition(to); err != nil {
			return err
		}
		if err := apply(uow, g); err != nil {
			return err
		}
		g.Status = to
		g.UpdatedAt = time.Now().UTC()
		if err := uow.Games().UpdateGame(ctx, g); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notification.NewGameChanged(gameID, notification.KindGame).WithStatus(string(to)))
	return out, nil
}

func (s *Service) publish(ctx context.Context, event *notification.GameChanged) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("game_id", event.GameID.String()).Msg("publish game change failed")
	}
}

func getGame(ctx context.Context, repo game.Repository, gameID uuid.UUID) (*game.Game, error) {
	g, err := found(repo.GetGame(ctx, gameID))
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", gameID, err)
	}
	return g, nil
}

func lockGame(ctx context.Context, repo game.Repository, gameID uuid.UUID) (*game.Game, error) {
	g, err := found(repo.LockGame(ctx, gameID))
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", gameID, err)
	}
	return g, nil
}

func found(g *game.Game, err error) (*game.Game, error) {
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, game.ErrNotFound
	}
	return g, nil
}
