package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestLabel(t *testing.T) {
	id := uuid.MustParse("1a2b3c4d-0000-0000-0000-000000000000")

	t.Run("handle wins", func(t *testing.T) {
		assert.Equal(t, "@ace", Label(id, strPtr("ace"), strPtr("Ace Ventura")))
		assert.Equal(t, "@ace", Label(id, strPtr("@ace"), nil))
	})

	t.Run("display name", func(t *testing.T) {
		assert.Equal(t, "Ace Ventura", Label(id, strPtr("  "), strPtr("Ace Ventura")))
	})

	t.Run("placeholder", func(t *testing.T) {
		assert.Equal(t, "Player_1a2b3c4d", Label(id, nil, nil))
	})
}

func TestNewProfile(t *testing.T) {
	id := uuid.New()

	p := NewProfile(id, "", "river.rat@example.com")
	require.NotNil(t, p.DisplayName)
	assert.Equal(t, "river.rat", *p.DisplayName)
	assert.True(t, p.Public)

	p = NewProfile(id, " Dana ", "")
	assert.Equal(t, "Dana", *p.DisplayName)
	assert.Nil(t, p.Email)
}

func TestProfile_Apply(t *testing.T) {
	p := NewProfile(uuid.New(), "Dana", "")

	require.NoError(t, p.Apply(Update{Handle: strPtr("@dana"), Public: new(bool)}))
	assert.Equal(t, "dana", *p.Handle)
	assert.False(t, p.Public)
	assert.Equal(t, "@dana", p.Label())

	require.NoError(t, p.Apply(Update{Handle: strPtr("")}))
	assert.Nil(t, p.Handle)

	err := p.Apply(Update{Handle: strPtr("two words")})
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestCumulative(t *testing.T) {
	at := time.Now().UTC()
	userID := uuid.New()
	records := []*ProfitRecord{
		NewProfitRecord(userID, uuid.New(), 25, at),
		NewProfitRecord(userID, uuid.New(), -40, at.Add(time.Hour)),
		NewProfitRecord(userID, uuid.New(), 5, at.Add(2*time.Hour)),
	}

	points := Cumulative(records)
	require.Len(t, points, 3)
	assert.Equal(t, 25.0, points[0].Total)
	assert.Equal(t, -15.0, points[1].Total)
	assert.Equal(t, -10.0, points[2].Total)
}

type stubRepo struct {
	Repository
	profiles []*Profile
}

func (s stubRepo) GetByIDs(_ context.Context, _ []uuid.UUID) ([]*Profile, error) {
	return s.profiles, nil
}

func TestRepositoryResolver(t *testing.T) {
	known := NewProfile(uuid.New(), "Dana", "")
	unknown := uuid.New()
	r := NewRepositoryResolver(stubRepo{profiles: []*Profile{known}})

	ids, err := r.Resolve(context.Background(), []uuid.UUID{known.ID, unknown})
	require.NoError(t, err)
	assert.Equal(t, "Dana", ids[known.ID].Label)
	assert.Equal(t, Placeholder(unknown), ids[unknown].Label)
}
