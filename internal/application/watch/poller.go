package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/profile"
)

// DefaultInterval is the re-fetch period when no change event arrives.
const DefaultInterval = 3 * time.Second

// Loader reads the current state of a game.
type Loader interface {
	Load(ctx context.Context, gameID uuid.UUID) (*State, error)
}

// StoreLoader reads game state straight from the store.
type StoreLoader struct {
	store    game.Store
	resolver profile.Resolver
}

func NewStoreLoader(store game.Store, resolver profile.Resolver) *StoreLoader {
	return &StoreLoader{store: store, resolver: resolver}
}

func (l *StoreLoader) Load(ctx context.Context, gameID uuid.UUID) (*State, error) {
	g, err := l.store.Games().GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	participants, err := l.store.Games().ListParticipants(ctx, gameID, game.ParticipantFilter{})
	if err != nil {
		return nil, err
	}
	guests, err := l.store.Games().ListGuests(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	// Placeholder names are good enough for a refresh; errors here would only
	// delay the next snapshot.
	resolved, _ := profile.ResolveOrPlaceholder(ctx, l.resolver, ids)
	game.NameParticipants(participants, resolved)
	return &State{Game: g, Participants: participants, Guests: guests}, nil
}

// Poller keeps a Reducer current by re-reading a game on a fixed interval and
// whenever a change event wakes it.
type Poller struct {
	loader   Loader
	interval time.Duration
	logger   zerolog.Logger
}

func NewPoller(loader Loader, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		loader:   loader,
		interval: interval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
}

// Run loads gameID immediately, then on every tick or wake signal, feeding
// each read into reducer. onChange runs after a snapshot that differs from
// the previous one. Run returns when ctx is done or wake is closed.
func (p *Poller) Run(ctx context.Context, gameID uuid.UUID, wake <-chan struct{}, reducer *Reducer, onChange func(*State)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.refresh(ctx, gameID, reducer, onChange)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-wake:
			if !ok {
				return nil
			}
		case <-ticker.C:
		}
	}
}

func (p *Poller) refresh(ctx context.Context, gameID uuid.UUID, reducer *Reducer, onChange func(*State)) {
	state, err := p.loader.Load(ctx, gameID)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn().Err(err).Str("game_id", gameID.String()).Msg("game refresh failed")
		}
		return
	}
	changed, err := reducer.Accept(state)
	if err != nil {
		p.logger.Warn().Err(err).Str("game_id", gameID.String()).Msg("game snapshot rejected")
		return
	}
	if changed && onChange != nil {
		onChange(reducer.View())
	}
}
