package payout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/history"
	"github.com/homegame/homegame/internal/domain/profile"
	"github.com/homegame/homegame/internal/domain/settlement"
)

// standingsLimit is how many players the standings board shows.
const standingsLimit = 3

// Service serves the read side of a game: the live payout, past sessions and
// the per-game standings.
type Service struct {
	store    game.Store
	resolver profile.Resolver
	logger   zerolog.Logger
}

// NewService creates a payout service.
func NewService(store game.Store, resolver profile.Resolver, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		logger:   logger.With().Str("service", "payout").Logger(),
	}
}

// Payout settles the current approved ledger plus eligible guests.
func (s *Service) Payout(ctx context.Context, gameID uuid.UUID) (*settlement.Payout, error) {
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}
	participants, err := s.store.Games().ListParticipants(ctx, gameID, game.ParticipantFilter{})
	if err != nil {
		return nil, err
	}
	guests, err := s.store.Games().ListGuests(ctx, gameID)
	if err != nil {
		return nil, err
	}
	labels := s.labels(ctx, userIDs(participants))
	game.NameParticipants(participants, labels)

	roster := game.NewRoster(participants, guests)
	payout, err := roster.Settle()
	if err != nil {
		return nil, fmt.Errorf("%w: %d settle-eligible parties", err, roster.Len())
	}
	return payout, nil
}

// SessionView is one past session with its settlement. Payout is nil for a
// session with fewer than two rows.
type SessionView struct {
	history.Session
	Payout *settlement.Payout `json:"payout,omitempty"`
}

// History returns every snapshotted session of the game, oldest first.
func (s *Service) History(ctx context.Context, gameID uuid.UUID) ([]SessionView, error) {
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}
	players, err := s.store.History().ListSessionSnapshots(ctx, gameID)
	if err != nil {
		return nil, err
	}
	guests, err := s.store.History().ListGuestSnapshots(ctx, gameID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.UserID)
	}
	labels := s.labels(ctx, ids)
	name := func(id uuid.UUID) string { return labels[id].Label }

	sessions := history.GroupSessions(players, guests, name, game.GuestLabel)
	out := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		view := SessionView{Session: sess}
		payout, err := sess.Payout()
		switch {
		case errors.Is(err, settlement.ErrInsufficientData):
		case err != nil:
			return nil, err
		default:
			view.Payout = payout
		}
		out = append(out, view)
	}
	return out, nil
}

// Standing is one player's total across every snapshotted session.
type Standing struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Net    float64   `json:"net"`
	Kicked bool      `json:"kicked"`
}

// Standings returns the top players of the game by summed session net.
// Kicked players stay on the board, flagged.
func (s *Service) Standings(ctx context.Context, gameID uuid.UUID) ([]Standing, error) {
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}
	snapshots, err := s.store.History().ListSessionSnapshots(ctx, gameID)
	if err != nil {
		return nil, err
	}
	denied := game.ParticipantDenied
	kicked, err := s.store.Games().ListParticipants(ctx, gameID, game.ParticipantFilter{Status: &denied})
	if err != nil {
		return nil, err
	}
	isKicked := make(map[uuid.UUID]bool, len(kicked))
	for _, p := range kicked {
		isKicked[p.UserID] = true
	}

	totals := history.Totals(snapshots)
	ids := make([]uuid.UUID, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	labels := s.labels(ctx, ids)

	out := make([]Standing, 0, len(totals))
	for id, net := range totals {
		out = append(out, Standing{UserID: id, Name: labels[id].Label, Net: net, Kicked: isKicked[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Net != out[j].Net {
			return out[i].Net > out[j].Net
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > standingsLimit {
		out = out[:standingsLimit]
	}
	return out, nil
}

// Series is one player's results within a game.
type Series struct {
	UserID     uuid.UUID       `json:"userId"`
	PerSession []history.Point `json:"perSession"`
	Cumulative []history.Point `json:"cumulative"`
}

// UserSeries returns a player's per-session and running nets for a game.
func (s *Service) UserSeries(ctx context.Context, gameID, userID uuid.UUID) (*Series, error) {
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}
	snapshots, err := s.store.History().ListSessionSnapshots(ctx, gameID)
	if err != nil {
		return nil, err
	}
	perSession, cumulative := history.UserSeries(snapshots, userID)
	return &Series{UserID: userID, PerSession: perSession, Cumulative: cumulative}, nil
}

func (s *Service) labels(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]profile.Identity {
	resolved, err := profile.ResolveOrPlaceholder(ctx, s.resolver, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("profile lookup failed, using placeholder names")
	}
	if resolved == nil {
		resolved = make(map[uuid.UUID]profile.Identity, len(ids))
	}
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			resolved[id] = profile.Identity{UserID: id, Label: profile.Placeholder(id)}
		}
	}
	return resolved
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

func userIDs(participants []*game.Participant) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
