package settlement

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_TwoPlayers(t *testing.T) {
	payout, err := Calculate([]Entry{
		{Name: "A", CashIn: 100, CashOut: 0},
		{Name: "B", CashIn: 0, CashOut: 100},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, payout.Slippage)
	assert.True(t, payout.Balanced())
	assert.Equal(t, []Settlement{{From: "A", To: "B", Amount: 100}}, payout.Transfers())

	b, ok := payout.Find("B")
	require.True(t, ok)
	assert.Equal(t, []Transfer{{Target: "A", Value: 100}}, b.PaidBy)
	assert.Empty(t, b.PaidTo)
	assert.Equal(t, 100.0, b.Net)
}

func TestCalculate_TwoDebtorsOneCreditor(t *testing.T) {
	payout, err := Calculate([]Entry{
		{Name: "A", CashIn: 50},
		{Name: "B", CashIn: 50},
		{Name: "C", CashOut: 100},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, payout.Slippage)
	assert.ElementsMatch(t, []Settlement{
		{From: "A", To: "C", Amount: 50},
		{From: "B", To: "C", Amount: 50},
	}, payout.Transfers())
}

func TestCalculate_SlippageSpreadEvenly(t *testing.T) {
	payout, err := Calculate([]Entry{
		{Name: "A", CashIn: 100},
		{Name: "B", CashOut: 90},
	})
	require.NoError(t, err)

	assert.InDelta(t, 10.0, payout.Slippage, Epsilon)
	assert.False(t, payout.Balanced())

	a, _ := payout.Find("A")
	b, _ := payout.Find("B")
	assert.InDelta(t, -95.0, a.Net, Epsilon)
	assert.InDelta(t, 95.0, b.Net, Epsilon)
	assert.InDelta(t, 0.0, a.Net+b.Net, Epsilon)
	assert.Equal(t, []Settlement{{From: "A", To: "B", Amount: 95}}, payout.Transfers())
}

func TestCalculate_AllZero(t *testing.T) {
	payout, err := Calculate([]Entry{{Name: "A"}, {Name: "B"}, {Name: "C"}})
	require.NoError(t, err)

	assert.Empty(t, payout.Transfers())
	for _, p := range payout.Players {
		assert.Equal(t, 0.0, p.Net)
		assert.False(t, math.Signbit(p.Net), "net for %s must not be negative zero", p.Name)
	}
}

func TestCalculate_InsufficientData(t *testing.T) {
	_, err := Calculate(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Calculate([]Entry{{Name: "solo", CashIn: 20}})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCalculate_FloatResidue(t *testing.T) {
	payout, err := Calculate([]Entry{
		{Name: "A", CashIn: 0.1, CashOut: 0},
		{Name: "B", CashIn: 0.2, CashOut: 0},
		{Name: "C", CashIn: 0, CashOut: 0.3},
	})
	require.NoError(t, err)

	assert.True(t, payout.Balanced())
	assert.Len(t, payout.Transfers(), 2)
}

func TestCalculate_DisplayNameStripsPrefix(t *testing.T) {
	payout, err := Calculate([]Entry{
		{Name: "@alice", CashIn: 10},
		{Name: "$bob", CashOut: 10},
	})
	require.NoError(t, err)

	sorted := payout.Sorted()
	assert.Equal(t, "alice", sorted[0].DisplayName)
	assert.Equal(t, "bob", sorted[1].DisplayName)
	assert.Equal(t, "@alice", sorted[0].Name)
}

func TestCalculate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := 2 + rng.Intn(9)
		entries := make([]Entry, n)
		for i := range entries {
			entries[i] = Entry{
				Name:    "p" + strconv.Itoa(i),
				CashIn:  math.Round(rng.Float64()*50000) / 100,
				CashOut: math.Round(rng.Float64()*50000) / 100,
			}
		}

		payout, err := Calculate(entries)
		require.NoError(t, err)

		var sum float64
		for _, p := range payout.Players {
			sum += p.Net
		}
		assert.InDelta(t, 0.0, sum, 1e-6, "round %d", round)

		transfers := payout.Transfers()
		assert.LessOrEqual(t, len(transfers), n-1, "round %d", round)

		// Applying the transfers must zero every balance.
		remaining := make(map[string]float64, n)
		for _, p := range payout.Players {
			remaining[p.Name] = p.Net
		}
		for _, tr := range transfers {
			assert.Greater(t, tr.Amount, Epsilon)
			remaining[tr.From] += tr.Amount
			remaining[tr.To] -= tr.Amount
		}
		for name, v := range remaining {
			assert.InDelta(t, 0.0, v, 1e-6, "round %d player %s", round, name)
		}

		again, err := Calculate(entries)
		require.NoError(t, err)
		assert.Equal(t, transfers, again.Transfers(), "round %d", round)
	}
}

func TestNamer_Unique(t *testing.T) {
	n := NewNamer()
	assert.Equal(t, "bob", n.Unique("bob"))
	assert.Equal(t, "bob_1", n.Unique("bob"))
	assert.Equal(t, "bob_2", n.Unique("bob"))
	assert.Equal(t, "@alice", n.Unique("@alice"))
}

func TestFormatDollar(t *testing.T) {
	assert.Equal(t, "$1,234", FormatDollar(1234))
	assert.Equal(t, "$12.50", FormatDollar(12.5))
	assert.Equal(t, "-$5", FormatDollar(-5))
	assert.Equal(t, "$0", FormatDollar(-0.001))
}
