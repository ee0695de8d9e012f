package profile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/profile"
	"github.com/homegame/homegame/internal/infrastructure/sqlite"
)

type recordingInvalidator struct {
	ids []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(id uuid.UUID) {
	r.ids = append(r.ids, id)
}

func newTestService(t *testing.T) (*Service, *sqlite.Store, *recordingInvalidator) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	cache := &recordingInvalidator{}
	return NewService(store, cache, zerolog.Nop()), store, cache
}

func strPtr(s string) *string { return &s }

func TestService_EnsureAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, cache := newTestService(t)
	userID := uuid.New()

	p, err := svc.Ensure(ctx, userID, "", "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "dana", *p.DisplayName)
	assert.True(t, p.Public)
	assert.Equal(t, []uuid.UUID{userID}, cache.ids)

	_, err = svc.Update(ctx, uuid.New(), userID, profile.Update{DisplayName: strPtr("x")})
	assert.ErrorIs(t, err, game.ErrNotAuthorized)

	_, err = svc.Update(ctx, userID, userID, profile.Update{Handle: strPtr("two words")})
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	public := false
	p, err = svc.Update(ctx, userID, userID, profile.Update{Handle: strPtr("@dana"), Public: &public})
	require.NoError(t, err)
	assert.Equal(t, "dana", *p.Handle)
	assert.Equal(t, "@dana", p.Label())
	assert.False(t, p.Public)
	assert.Len(t, cache.ids, 2)

	other := uuid.New()
	_, err = svc.Update(ctx, other, other, profile.Update{Handle: strPtr("dana")})
	assert.ErrorIs(t, err, game.ErrConflict)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, game.ErrNotFound)
	_, err = svc.Ensure(ctx, uuid.Nil, "", "")
	assert.ErrorIs(t, err, game.ErrInvalidArgument)
}

func TestService_LeaderboardAndSeries(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	first := game.NewGame(uuid.New(), "", "first2")
	second := game.NewGame(uuid.New(), "", "secnd2")
	require.NoError(t, store.Games().CreateGame(ctx, first))
	require.NoError(t, store.Games().CreateGame(ctx, second))
	winner, loser, hidden := uuid.New(), uuid.New(), uuid.New()
	for id, name := range map[uuid.UUID]string{winner: "Win", loser: "Lose", hidden: "Hide"} {
		_, err := svc.Ensure(ctx, id, name, "")
		require.NoError(t, err)
	}
	public := false
	_, err := svc.Update(ctx, hidden, hidden, profile.Update{Public: &public})
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Profiles().ApplyProfitDeltas(ctx, []*profile.ProfitRecord{
		profile.NewProfitRecord(winner, first.ID, 40, at),
		profile.NewProfitRecord(loser, first.ID, -30, at),
		profile.NewProfitRecord(hidden, first.ID, -10, at),
	}))
	require.NoError(t, store.Profiles().ApplyProfitDeltas(ctx, []*profile.ProfitRecord{
		profile.NewProfitRecord(winner, second.ID, -15, at.Add(time.Hour)),
	}))

	board, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "Win", board[0].Name)
	assert.Equal(t, 25.0, board[0].NetProfit)
	assert.Equal(t, 2, board[1].Rank)

	series, err := svc.Series(ctx, winner)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 40.0, series[0].Total)
	assert.Equal(t, 25.0, series[1].Total)
}
