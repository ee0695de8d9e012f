package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/notification"
	"github.com/homegame/homegame/internal/domain/profile"
)

// Service owns the participant ledger of each game: admission, requested
// amounts, host approval, and the guest overlay.
type Service struct {
	store     game.Store
	resolver  profile.Resolver
	publisher notification.Publisher
	logger    zerolog.Logger
}

// NewService creates a ledger service.
func NewService(
	store game.Store,
	resolver profile.Resolver,
	publisher notification.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:     store,
		resolver:  resolver,
		publisher: publisher,
		logger:    logger.With().Str("service", "ledger").Logger(),
	}
}

// RequestJoin files a pending join request. A user that already has a row
// gets it back unchanged.
func (s *Service) RequestJoin(ctx context.Context, gameID, userID uuid.UUID) (*game.Participant, error) {
	return s.join(ctx, gameID, userID)
}

// RequestJoinByCode resolves an invite code and files a join request.
func (s *Service) RequestJoinByCode(ctx context.Context, code string, userID uuid.UUID) (*game.Participant, error) {
	code = game.NormalizeShortCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: join code is required", game.ErrInvalidArgument)
	}
	g, err := s.store.Games().GetGameByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: no game with code %q", game.ErrNotFound, code)
	}
	return s.join(ctx, g.ID, userID)
}

func (s *Service) join(ctx context.Context, gameID, userID uuid.UUID) (*game.Participant, error) {
	var (
		out     *game.Participant
		created bool
	)
	err := s.store.WithinTx(ctx, func(uow game.UnitOfWork) error {
		g, err := lockGame(ctx, uow.Games(), gameID)
		if err != nil {
			return err
		}
		if g.Status != game.StatusActive {
			return fmt.Errorf("%w: game is not joinable (%s)", game.ErrInvalidState, g.Status)
		}
		existing, err := uow.Games().GetParticipant(ctx, gameID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			out = existing
			return nil
		}
		p := game.NewPendingParticipant(gameID, userID)
		if err := uow.Games().CreateParticipant(ctx, p); err != nil {
			return err
		}
		out, created = p, true
		return nil
	})
	if errors.Is(err, game.ErrConflict) {
		return s.store.Games().GetParticipant(ctx, gameID, userID)
	}
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info().Str("game_id", gameID.String()).Str("user_id", userID.String()).Msg("join requested")
		s.publish(ctx, notification.NewGameChanged(gameID, notification.KindParticipants).ForUser(userID))
	}
	return out, nil
}

// SetRequestedAmounts records a participant's own cash figures. Denied
// participants get their row back unchanged.
func (s *Service) SetRequestedAmounts(ctx context.Context, gameID, userID, caller uuid.UUID, cashIn, cashOut float64) (*game.Participant, error) {
	if caller != userID {
		return nil, fmt.Errorf("%w: players can only report their own amounts", game.ErrNotAuthorized)
	}
	if err := game.ValidateAmounts(cashIn, cashOut); err != nil {
		return nil, err
	}
	return s.updateParticipant(ctx, gameID, userID,
		(*game.Game).RequireMutable,
		func(_ *game.Game, p *game.Participant) error {
			if p.Status == game.ParticipantDenied {
				return errUnchanged
			}
			p.SetRequested(cashIn, cashOut)
			return nil
		})
}

// Approve admits a participant; their requested amounts become confirmed.
func (s *Service) Approve(ctx context.Context, gameID, userID, caller uuid.UUID) (*game.Participant, error) {
	p, err := s.updateParticipant(ctx, gameID, userID, hostCheck(caller), func(_ *game.Game, p *game.Participant) error {
		p.Approve()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("game_id", gameID.String()).Str("user_id", userID.String()).Msg("participant approved")
	return p, nil
}

// Deny rejects a participant. The row is kept so they can ask to rejoin. The
// host's own row cannot be denied.
func (s *Service) Deny(ctx context.Context, gameID, userID, caller uuid.UUID) (*game.Participant, error) {
	p, err := s.updateParticipant(ctx, gameID, userID, hostCheck(caller, notHost(userID, "deny")), func(_ *game.Game, p *game.Participant) error {
		p.Deny()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("game_id", gameID.String()).Str("user_id", userID.String()).Msg("participant denied")
	return p, nil
}

// Kick removes an approved player from play. The host cannot kick themself.
func (s *Service) Kick(ctx context.Context, gameID, userID, caller uuid.UUID) (*game.Participant, error) {
	p, err := s.updateParticipant(ctx, gameID, userID, hostCheck(caller, notHost(userID, "kick")), func(_ *game.Game, p *game.Participant) error {
		p.Deny()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("game_id", gameID.String()).Str("user_id", userID.String()).Msg("participant kicked")
	return p, nil
}

// RequestRejoin moves the caller's denied row back to pending.
func (s *Service) RequestRejoin(ctx context.Context, gameID, userID, caller uuid.UUID) (*game.Participant, error) {
	if caller != userID {
		return nil, fmt.Errorf("%w: players can only rejoin for themselves", game.ErrNotAuthorized)
	}
	return s.updateParticipant(ctx, gameID, userID,
		(*game.Game).RequireMutable,
		func(_ *game.Game, p *game.Participant) error {
			return p.Rejoin()
		})
}

// SetConfirmedAmounts lets the host overwrite a participant's confirmed
// figures. It is the one edit still allowed while the session is closed.
func (s *Service) SetConfirmedAmounts(ctx context.Context, gameID, userID, caller uuid.UUID, cashIn, cashOut float64) (*game.Participant, error) {
	check := func(g *game.Game) error {
		if err := g.RequireHost(caller); err != nil {
			return err
		}
		if err := game.ValidateAmounts(cashIn, cashOut); err != nil {
			return err
		}
		if g.Status == game.StatusEnded {
			return fmt.Errorf("%w: game has ended", game.ErrInvalidState)
		}
		return nil
	}
	return s.updateParticipant(ctx, gameID, userID, check, func(_ *game.Game, p *game.Participant) error {
		p.SetConfirmed(cashIn, cashOut)
		return nil
	})
}

// ApproveRequestedDelta copies one requested field into its confirmed value.
func (s *Service) ApproveRequestedDelta(ctx context.Context, gameID, userID uuid.UUID, field game.Field, caller uuid.UUID) (*game.Participant, error) {
	return s.updateDelta(ctx, gameID, userID, field, caller, (*game.Participant).AcceptRequested)
}

// RejectRequestedDelta resets one requested field to its confirmed value.
func (s *Service) RejectRequestedDelta(ctx context.Context, gameID, userID uuid.UUID, field game.Field, caller uuid.UUID) (*game.Participant, error) {
	return s.updateDelta(ctx, gameID, userID, field, caller, (*game.Participant).RejectRequested)
}

func (s *Service) updateDelta(ctx context.Context, gameID, userID uuid.UUID, field game.Field, caller uuid.UUID, apply func(*game.Participant, game.Field)) (*game.Participant, error) {
	parsed := func(*game.Game) error {
		_, err := game.ParseField(string(field))
		return err
	}
	return s.updateParticipant(ctx, gameID, userID, hostCheck(caller, parsed), func(_ *game.Game, p *game.Participant) error {
		if p.Status != game.ParticipantApproved {
			return fmt.Errorf("%w: participant is %s", game.ErrInvalidState, p.Status)
		}
		apply(p, field)
		return nil
	})
}

// ListParticipants returns every row of the game in join order with resolved,
// de-duplicated display names.
func (s *Service) ListParticipants(ctx context.Context, gameID uuid.UUID) ([]*game.Participant, error) {
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}
	participants, err := s.store.Games().ListParticipants(ctx, gameID, game.ParticipantFilter{})
	if err != nil {
		return nil, err
	}
	s.name(ctx, participants)
	return participants, nil
}

func (s *Service) name(ctx context.Context, participants []*game.Participant) {
	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	resolved, err := profile.ResolveOrPlaceholder(ctx, s.resolver, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("profile lookup failed, using placeholder names")
	}
	game.NameParticipants(participants, resolved)
}

// errUnchanged tells updateParticipant to return the row without saving it.
var errUnchanged = errors.New("participant unchanged")

// updateParticipant locks the game, runs check against it, then loads the
// participant, applies change and saves the row in the same transaction.
// check runs before the participant lookup so callers without rights never
// learn whether a row exists.
func (s *Service) updateParticipant(
	ctx context.Context,
	gameID, userID uuid.UUID,
	check func(*game.Game) error,
	change func(*game.Game, *game.Participant) error,
) (*game.Participant, error) {
	var (
		out   *game.Participant
		saved bool
	)
	err := s.store.WithinTx(ctx, func(uow game.UnitOfWork) error {
		g, err := lockGame(ctx, uow.Games(), gameID)
		if err != nil {
			return err
		}
		if err := check(g); err != nil {
			return err
		}
		p, err := uow.Games().GetParticipant(ctx, gameID, userID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: participant %s", game.ErrNotFound, userID)
		}
		out = p
		if err := change(g, p); err != nil {
			return err
		}
		saved = true
		return uow.Games().UpdateParticipant(ctx, p)
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return nil, err
	}
	if saved {
		s.publish(ctx, notification.NewGameChanged(gameID, notification.KindParticipants).ForUser(userID))
	}
	return out, nil
}

// hostCheck requires the caller to host a mutable game, then runs extra in
// order.
func hostCheck(caller uuid.UUID, extra ...func(*game.Game) error) func(*game.Game) error {
	return func(g *game.Game) error {
		if err := g.RequireHost(caller); err != nil {
			return err
		}
		for _, check := range extra {
			if err := check(g); err != nil {
				return err
			}
		}
		return g.RequireMutable()
	}
}

func notHost(userID uuid.UUID, action string) func(*game.Game) error {
	return func(g *game.Game) error {
		if g.IsHost(userID) {
			return fmt.Errorf("%w: the host cannot %s themself", game.ErrInvalidArgument, action)
		}
		return nil
	}
}

func (s *Service) loadGame(ctx context.Context, gameID uuid.UUID) (*game.Game, error) {
	g, err := s.store.Games().GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	return g, nil
}

func lockGame(ctx context.Context, repo game.Repository, gameID uuid.UUID) (*game.Game, error) {
	g, err := repo.LockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	return g, nil
}

func (s *Service) publish(ctx context.Context, event *notification.GameChanged) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("game_id", event.GameID.String()).Msg("publish game change failed")
	}
}
