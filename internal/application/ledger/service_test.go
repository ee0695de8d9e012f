package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/notification"
	notificationmocks "github.com/homegame/homegame/internal/domain/notification/mocks"
	"github.com/homegame/homegame/internal/domain/profile"
	profilemocks "github.com/homegame/homegame/internal/domain/profile/mocks"
	"github.com/homegame/homegame/internal/infrastructure/sqlite"
)

type fixture struct {
	svc    *Service
	store  *sqlite.Store
	game   *game.Game
	hostID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hostID := uuid.New()
	g := game.NewGame(hostID, "Friday", "fri234")
	require.NoError(t, store.Games().CreateGame(ctx, g))
	require.NoError(t, store.Games().CreateParticipant(ctx, game.NewApprovedParticipant(g.ID, hostID)))

	resolver := profile.NewRepositoryResolver(store.Profiles())
	return &fixture{
		svc:    NewService(store, resolver, nil, zerolog.Nop()),
		store:  store,
		game:   g,
		hostID: hostID,
	}
}

func (f *fixture) setStatus(t *testing.T, status game.Status) {
	t.Helper()
	f.game.Status = status
	require.NoError(t, f.store.Games().UpdateGame(context.Background(), f.game))
}

func TestService_JoinApproveFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := uuid.New()

	p, err := f.svc.RequestJoinByCode(ctx, " FRI234 ", alice)
	require.NoError(t, err)
	assert.Equal(t, game.ParticipantPending, p.Status)
	assert.Equal(t, 0.0, *p.RequestedCashIn)
	assert.Nil(t, p.ConfirmedCashIn)

	again, err := f.svc.RequestJoin(ctx, f.game.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, game.ParticipantPending, again.Status)
	assert.Equal(t, alice, again.UserID)

	_, err = f.svc.SetRequestedAmounts(ctx, f.game.ID, alice, alice, 20, 0)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.game.ID, alice, alice)
	assert.ErrorIs(t, err, game.ErrNotAuthorized)

	p, err = f.svc.Approve(ctx, f.game.ID, alice, f.hostID)
	require.NoError(t, err)
	assert.Equal(t, game.ParticipantApproved, p.Status)
	assert.Equal(t, 20.0, p.CashIn())

	_, err = f.svc.SetRequestedAmounts(ctx, f.game.ID, alice, alice, 50, 35)
	require.NoError(t, err)
	p, err = f.svc.ApproveRequestedDelta(ctx, f.game.ID, alice, game.FieldCashIn, f.hostID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, p.CashIn())
	assert.Equal(t, 0.0, p.CashOut())
	assert.True(t, p.HasPendingRequest())

	p, err = f.svc.RejectRequestedDelta(ctx, f.game.ID, alice, game.FieldCashOut, f.hostID)
	require.NoError(t, err)
	assert.False(t, p.HasPendingRequest())

	_, err = f.svc.ApproveRequestedDelta(ctx, f.game.ID, alice, game.Field("rake"), f.hostID)
	assert.ErrorIs(t, err, game.ErrInvalidArgument)
}

func TestService_RequestJoinRejectsClosedGame(t *testing.T) {
	f := newFixture(t)
	f.setStatus(t, game.StatusClosed)

	_, err := f.svc.RequestJoin(context.Background(), f.game.ID, uuid.New())
	assert.ErrorIs(t, err, game.ErrInvalidState)

	_, err = f.svc.RequestJoinByCode(context.Background(), "nope99", uuid.New())
	assert.ErrorIs(t, err, game.ErrNotFound)
	_, err = f.svc.RequestJoinByCode(context.Background(), "  ", uuid.New())
	assert.ErrorIs(t, err, game.ErrInvalidArgument)
}

func TestService_SetRequestedAmounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bob := uuid.New()
	_, err := f.svc.RequestJoin(ctx, f.game.ID, bob)
	require.NoError(t, err)

	_, err = f.svc.SetRequestedAmounts(ctx, f.game.ID, bob, f.hostID, 10, 0)
	assert.ErrorIs(t, err, game.ErrNotAuthorized)
	_, err = f.svc.SetRequestedAmounts(ctx, f.game.ID, bob, bob, -1, 0)
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	_, err = f.svc.Deny(ctx, f.game.ID, bob, f.hostID)
	require.NoError(t, err)
	p, err := f.svc.SetRequestedAmounts(ctx, f.game.ID, bob, bob, 10, 0)
	require.NoError(t, err, "denied players are ignored, not rejected")
	assert.Equal(t, 0.0, *p.RequestedCashIn)

	p, err = f.svc.RequestRejoin(ctx, f.game.ID, bob, bob)
	require.NoError(t, err)
	assert.Equal(t, game.ParticipantPending, p.Status)
	_, err = f.svc.RequestRejoin(ctx, f.game.ID, bob, bob)
	assert.ErrorIs(t, err, game.ErrInvalidState)

	f.setStatus(t, game.StatusClosed)
	_, err = f.svc.SetRequestedAmounts(ctx, f.game.ID, bob, bob, 10, 0)
	assert.ErrorIs(t, err, game.ErrInvalidState)
}

func TestService_KickAndConfirmedAmounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	carol := uuid.New()
	_, err := f.svc.RequestJoin(ctx, f.game.ID, carol)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.game.ID, carol, f.hostID)
	require.NoError(t, err)

	_, err = f.svc.Kick(ctx, f.game.ID, f.hostID, f.hostID)
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	f.setStatus(t, game.StatusClosed)
	_, err = f.svc.Kick(ctx, f.game.ID, carol, f.hostID)
	assert.ErrorIs(t, err, game.ErrInvalidState)

	p, err := f.svc.SetConfirmedAmounts(ctx, f.game.ID, carol, f.hostID, 40, 60)
	require.NoError(t, err, "host corrections are allowed while closed")
	assert.Equal(t, 60.0, p.CashOut())
	assert.False(t, p.HasPendingRequest())

	_, err = f.svc.SetConfirmedAmounts(ctx, f.game.ID, carol, carol, 1, 1)
	assert.ErrorIs(t, err, game.ErrNotAuthorized)

	f.setStatus(t, game.StatusActive)
	p, err = f.svc.Kick(ctx, f.game.ID, carol, f.hostID)
	require.NoError(t, err)
	assert.Equal(t, game.ParticipantDenied, p.Status)
	assert.Equal(t, 40.0, p.CashIn(), "kicked rows keep their amounts")

	_, err = f.svc.Approve(ctx, f.game.ID, uuid.New(), f.hostID)
	assert.ErrorIs(t, err, game.ErrNotFound)

	f.setStatus(t, game.StatusEnded)
	_, err = f.svc.SetConfirmedAmounts(ctx, f.game.ID, carol, f.hostID, 1, 1)
	assert.ErrorIs(t, err, game.ErrInvalidState)
}

func TestService_HostOnlyActions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	erin, frank := uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{erin, frank} {
		_, err := f.svc.RequestJoin(ctx, f.game.ID, id)
		require.NoError(t, err)
	}
	_, err := f.svc.Approve(ctx, f.game.ID, erin, f.hostID)
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
	}{
		{"deny other", func() error { _, err := f.svc.Deny(ctx, f.game.ID, frank, erin); return err }},
		{"deny self", func() error { _, err := f.svc.Deny(ctx, f.game.ID, erin, erin); return err }},
		{"deny host", func() error { _, err := f.svc.Deny(ctx, f.game.ID, f.hostID, erin); return err }},
		{"kick other", func() error { _, err := f.svc.Kick(ctx, f.game.ID, frank, erin); return err }},
		{"kick self", func() error { _, err := f.svc.Kick(ctx, f.game.ID, erin, erin); return err }},
		{"kick unknown", func() error { _, err := f.svc.Kick(ctx, f.game.ID, uuid.New(), erin); return err }},
		{"confirm negative", func() error {
			_, err := f.svc.SetConfirmedAmounts(ctx, f.game.ID, erin, erin, -5, 0)
			return err
		}},
		{"bad delta field", func() error {
			_, err := f.svc.ApproveRequestedDelta(ctx, f.game.ID, erin, game.Field("rake"), erin)
			return err
		}},
		{"add guest", func() error {
			_, err := f.svc.AddGuest(ctx, f.game.ID, erin, GuestInput{Name: ""})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), game.ErrNotAuthorized)
		})
	}

	p, err := f.svc.ListParticipants(ctx, f.game.ID)
	require.NoError(t, err)
	for _, row := range p {
		if row.UserID == frank {
			assert.Equal(t, game.ParticipantPending, row.Status)
		}
	}
}

func TestService_HostCannotRemoveThemself(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Deny(ctx, f.game.ID, f.hostID, f.hostID)
	assert.ErrorIs(t, err, game.ErrInvalidArgument)
	_, err = f.svc.Kick(ctx, f.game.ID, f.hostID, f.hostID)
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	host, err := f.store.Games().GetParticipant(ctx, f.game.ID, f.hostID)
	require.NoError(t, err)
	assert.Equal(t, game.ParticipantApproved, host.Status)
}

func TestService_DeltaRequiresApproved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dan := uuid.New()
	_, err := f.svc.RequestJoin(ctx, f.game.ID, dan)
	require.NoError(t, err)

	_, err = f.svc.ApproveRequestedDelta(ctx, f.game.ID, dan, game.FieldCashIn, f.hostID)
	assert.ErrorIs(t, err, game.ErrInvalidState)
}

func TestService_ListParticipantsNamesRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	twin1, twin2 := uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{twin1, twin2} {
		require.NoError(t, f.store.Profiles().Upsert(ctx, profile.NewProfile(id, "Sam", "")))
		_, err := f.svc.RequestJoin(ctx, f.game.ID, id)
		require.NoError(t, err)
	}

	participants, err := f.svc.ListParticipants(ctx, f.game.ID)
	require.NoError(t, err)
	require.Len(t, participants, 3)
	assert.Equal(t, profile.Placeholder(f.hostID), participants[0].DisplayName)
	assert.Equal(t, "Sam", participants[1].DisplayName)
	assert.Equal(t, "Sam_1", participants[2].DisplayName)

	_, err = f.svc.ListParticipants(ctx, uuid.New())
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestService_ListParticipantsFallsBackToPlaceholders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	resolver := profilemocks.NewMockResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), []uuid.UUID{f.hostID}).Return(nil, errors.New("profiles unavailable"))

	svc := NewService(f.store, resolver, nil, zerolog.Nop())
	participants, err := svc.ListParticipants(ctx, f.game.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, profile.Placeholder(f.hostID), participants[0].DisplayName)
}

func TestService_Guests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.AddGuest(ctx, f.game.ID, uuid.New(), GuestInput{Name: "Sam", CashIn: 10})
	assert.ErrorIs(t, err, game.ErrNotAuthorized)
	_, err = f.svc.AddGuest(ctx, f.game.ID, f.hostID, GuestInput{Name: " "})
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	sam, err := f.svc.AddGuest(ctx, f.game.ID, f.hostID, GuestInput{Name: "Sam", CashIn: 10})
	require.NoError(t, err)

	updated, err := f.svc.UpdateGuest(ctx, f.game.ID, sam.ID, f.hostID, GuestInput{Name: "Sammy", CashIn: 10, CashOut: 25})
	require.NoError(t, err)
	assert.Equal(t, "Sammy", updated.Name)

	guests, err := f.svc.ListGuests(ctx, f.game.ID)
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, 25.0, guests[0].CashOut)

	f.setStatus(t, game.StatusClosed)
	assert.ErrorIs(t, f.svc.RemoveGuest(ctx, f.game.ID, sam.ID, f.hostID), game.ErrInvalidState)

	f.setStatus(t, game.StatusActive)
	assert.ErrorIs(t, f.svc.RemoveGuest(ctx, f.game.ID, uuid.New(), f.hostID), game.ErrNotFound)
	require.NoError(t, f.svc.RemoveGuest(ctx, f.game.ID, sam.ID, f.hostID))
	guests, err = f.svc.ListGuests(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Empty(t, guests)
}

func TestService_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	publisher := notificationmocks.NewMockPublisher(ctrl)
	svc := NewService(f.store, profile.NewRepositoryResolver(f.store.Profiles()), publisher, zerolog.Nop())
	eve := uuid.New()

	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *notification.GameChanged) error {
		assert.Equal(t, f.game.ID, e.GameID)
		assert.Equal(t, notification.KindParticipants, e.Kind)
		require.NotNil(t, e.UserID)
		assert.Equal(t, eve, *e.UserID)
		return nil
	})
	_, err := svc.RequestJoin(ctx, f.game.ID, eve)
	require.NoError(t, err)

	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("hub gone"))
	_, err = svc.Approve(ctx, f.game.ID, eve, f.hostID)
	assert.NoError(t, err, "publish failures do not fail the write")
}
