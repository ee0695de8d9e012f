package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homegame/homegame/internal/domain/profile"
)

func TestNameParticipants(t *testing.T) {
	gameID := uuid.New()
	a := NewApprovedParticipant(gameID, uuid.New())
	b := NewApprovedParticipant(gameID, uuid.New())
	c := NewPendingParticipant(gameID, uuid.New())
	d := NewApprovedParticipant(gameID, uuid.New())

	ids := map[uuid.UUID]profile.Identity{
		a.UserID: {UserID: a.UserID, Label: "Bob"},
		b.UserID: {UserID: b.UserID, Label: "Bob"},
		c.UserID: {UserID: c.UserID, Label: "Bob"},
	}
	NameParticipants([]*Participant{a, b, c, d}, ids)

	assert.Equal(t, "Bob", a.DisplayName)
	assert.Equal(t, "Bob_1", b.DisplayName)
	assert.Equal(t, "Bob_2", c.DisplayName)
	assert.Equal(t, profile.Placeholder(d.UserID), d.DisplayName)
}

func TestRoster(t *testing.T) {
	gameID := uuid.New()
	host := NewApprovedParticipant(gameID, uuid.New())
	host.DisplayName = "@host"
	host.SetConfirmed(20, 50)
	player := NewApprovedParticipant(gameID, uuid.New())
	player.DisplayName = "Sam"
	player.SetConfirmed(40, 0)
	pending := NewPendingParticipant(gameID, uuid.New())
	pending.DisplayName = "Pat"

	guest, err := NewGuest(gameID, "Sam", 0, 10)
	require.NoError(t, err)
	idle, err := NewGuest(gameID, "Idle", 0, 0)
	require.NoError(t, err)

	r := NewRoster([]*Participant{host, player, pending}, []*Guest{guest, idle})
	require.Equal(t, 3, r.Len())
	assert.Equal(t, "Sam (guest)", r.Entries[2].Name)
	assert.True(t, r.IsGuest("Sam (guest)"))
	assert.False(t, r.IsGuest("Sam"))

	id, ok := r.UserID("@host")
	require.True(t, ok)
	assert.Equal(t, host.UserID, id)
	_, ok = r.UserID("Pat")
	assert.False(t, ok)

	payout, err := r.Settle()
	require.NoError(t, err)
	assert.True(t, payout.Balanced())
	res, ok := payout.Find("@host")
	require.True(t, ok)
	assert.InDelta(t, 30.0, res.Net, 1e-9)
}

func TestRoster_Insufficient(t *testing.T) {
	p := NewApprovedParticipant(uuid.New(), uuid.New())
	p.DisplayName = "solo"
	_, err := NewRoster([]*Participant{p}, nil).Settle()
	assert.ErrorIs(t, err, ErrInsufficientParticipants)
}
