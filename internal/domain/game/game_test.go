package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGame(t *testing.T) {
	hostID := uuid.New()
	g := NewGame(hostID, "  Friday cash game ", "abc234")

	assert.NotEqual(t, uuid.Nil, g.ID)
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, "Friday cash game", g.Description)
	assert.True(t, g.IsHost(hostID))
	assert.False(t, g.IsHost(uuid.New()))
	assert.False(t, g.Locked())
	assert.Nil(t, g.EndedAt)
}

func TestGame_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusActive, StatusClosed, true},
		{StatusClosed, StatusActive, true},
		{StatusActive, StatusEnded, true},
		{StatusClosed, StatusEnded, true},
		{StatusActive, StatusActive, false},
		{StatusClosed, StatusClosed, false},
		{StatusEnded, StatusActive, false},
		{StatusEnded, StatusClosed, false},
		{StatusEnded, StatusEnded, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			g := &Game{Status: tt.from}
			err := g.CanTransition(tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidState)
			}
		})
	}
}

func TestGame_Guards(t *testing.T) {
	hostID := uuid.New()
	g := NewGame(hostID, "", "code")

	assert.NoError(t, g.RequireHost(hostID))
	assert.ErrorIs(t, g.RequireHost(uuid.New()), ErrNotAuthorized)

	assert.NoError(t, g.RequireMutable())
	g.Status = StatusClosed
	assert.True(t, g.Locked())
	assert.ErrorIs(t, g.RequireMutable(), ErrInvalidState)
	assert.ErrorContains(t, g.RequireMutable(), "session locked")
	g.Status = StatusEnded
	assert.ErrorContains(t, g.RequireMutable(), "game has ended")
}

func TestNewShortCode(t *testing.T) {
	code, err := NewShortCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.Contains(t, shortCodeAlphabet, string(r))
	}

	_, err = NewShortCode(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, "abc234", NormalizeShortCode("  ABC234 "))
}
