package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/profile"
)

// LeaderboardSize is how many profiles the global leaderboard shows.
const LeaderboardSize = 10

// Invalidator drops cached identities after a profile write.
type Invalidator interface {
	Invalidate(id uuid.UUID)
}

// Service manages user profiles and the lifetime leaderboard.
type Service struct {
	store  game.Store
	cache  Invalidator
	logger zerolog.Logger
}

// NewService creates a profile service. cache may be nil.
func NewService(store game.Store, cache Invalidator, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger.With().Str("service", "profile").Logger(),
	}
}

// Ensure creates the user's profile if missing. An existing profile only
// gains a display name or email it did not have.
func (s *Service) Ensure(ctx context.Context, userID uuid.UUID, name, email string) (*profile.Profile, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user is required", game.ErrInvalidArgument)
	}
	if err := s.store.Profiles().Upsert(ctx, profile.NewProfile(userID, name, email)); err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return s.Get(ctx, userID)
}

// Get returns a profile or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	p, err := s.store.Profiles().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: profile %s", game.ErrNotFound, userID)
	}
	return p, nil
}

// Update edits the caller's own profile, creating it first if needed.
func (s *Service) Update(ctx context.Context, caller, userID uuid.UUID, update profile.Update) (*profile.Profile, error) {
	if caller != userID {
		return nil, fmt.Errorf("%w: profiles can only be edited by their owner", game.ErrNotAuthorized)
	}
	p, err := s.store.Profiles().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = profile.NewProfile(userID, "", "")
		if err := s.store.Profiles().Upsert(ctx, p); err != nil {
			return nil, err
		}
	}
	if err := p.Apply(update); err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrInvalidArgument, err)
	}
	if err := s.store.Profiles().Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(userID)
	s.logger.Info().Str("user_id", userID.String()).Msg("profile updated")
	return p, nil
}

// LeaderboardEntry is one row of the lifetime leaderboard.
type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	NetProfit float64   `json:"netProfit"`
}

// Leaderboard returns the public profiles with the highest lifetime profit.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	profiles, err := s.store.Profiles().ListLeaderboard(ctx, LeaderboardSize)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		out = append(out, LeaderboardEntry{Rank: i + 1, UserID: p.ID, Name: p.Label(), NetProfit: p.NetProfit})
	}
	return out, nil
}

// Series returns the user's lifetime profit after each ended game.
func (s *Service) Series(ctx context.Context, userID uuid.UUID) ([]profile.Point, error) {
	records, err := s.store.Profiles().ListProfitRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile.Cumulative(records), nil
}

func (s *Service) invalidate(id uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(id)
	}
}
