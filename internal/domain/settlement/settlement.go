package settlement

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// Epsilon is the absolute tolerance used for every balance comparison.
const Epsilon = 1e-9

// ErrInsufficientData is returned when fewer than two entries are supplied.
var ErrInsufficientData = errors.New("insufficient data")

// Entry is one participant's cash flow for a session.
type Entry struct {
	Name    string  `json:"name"`
	CashIn  float64 `json:"cashIn"`
	CashOut float64 `json:"cashOut"`
}

// Transfer is one leg of a settlement as seen from a single participant.
type Transfer struct {
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

// PlayerResult is the settled view of one entry.
type PlayerResult struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"displayName"`
	CashIn      float64    `json:"cashIn"`
	CashOut     float64    `json:"cashOut"`
	Net         float64    `json:"net"`
	PaidBy      []Transfer `json:"paidBy"`
	PaidTo      []Transfer `json:"paidTo"`
}

// Payout is the result of settling a list of entries.
type Payout struct {
	Slippage float64        `json:"slippage"`
	Players  []PlayerResult `json:"players"`
}

// Settlement is a single debtor -> creditor payment.
type Settlement struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Calculate nets the entries and returns the greedy minimal transfer list.
//
// Slippage (total in minus total out) is spread evenly over every entry so the
// nets sum to zero. Debtors are matched against creditors from both ends of the
// net-sorted list, which settles N entries in at most N-1 transfers.
func Calculate(entries []Entry) (*Payout, error) {
	if len(entries) < 2 {
		return nil, ErrInsufficientData
	}

	var slippage float64
	for _, e := range entries {
		slippage += e.CashIn - e.CashOut
	}
	share := slippage / float64(len(entries))

	players := make([]PlayerResult, len(entries))
	balances := make([]float64, len(entries))
	order := make([]int, len(entries))
	for i, e := range entries {
		net := normalize(e.CashOut - e.CashIn + share)
		players[i] = PlayerResult{
			Name:        e.Name,
			DisplayName: displayName(e.Name),
			CashIn:      e.CashIn,
			CashOut:     e.CashOut,
			Net:         net,
			PaidBy:      []Transfer{},
			PaidTo:      []Transfer{},
		}
		balances[i] = net
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return balances[order[a]] < balances[order[b]]
	})

	left, right := 0, len(order)-1
	for left < right {
		loser, winner := order[left], order[right]
		payment := math.Min(-balances[loser], balances[winner])
		if payment > Epsilon {
			balances[loser] += payment
			balances[winner] -= payment
			players[loser].PaidTo = append(players[loser].PaidTo, Transfer{Target: players[winner].Name, Value: payment})
			players[winner].PaidBy = append(players[winner].PaidBy, Transfer{Target: players[loser].Name, Value: payment})
		}
		// A side that is no longer a debtor (or creditor) is done; this also
		// guarantees progress when float residue leaves both sides tiny.
		if balances[loser] > -Epsilon {
			left++
		}
		if balances[winner] < Epsilon {
			right--
		}
	}

	return &Payout{Slippage: normalize(slippage), Players: players}, nil
}

// Balanced reports whether the ledger reconciled.
func (p *Payout) Balanced() bool {
	return math.Abs(p.Slippage) <= Epsilon
}

// Transfers flattens the payout into debtor -> creditor payments.
func (p *Payout) Transfers() []Settlement {
	var out []Settlement
	for _, pl := range p.Players {
		for _, t := range pl.PaidTo {
			out = append(out, Settlement{From: pl.Name, To: t.Target, Amount: t.Value})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Sorted returns the player results ordered by display name.
func (p *Payout) Sorted() []PlayerResult {
	out := make([]PlayerResult, len(p.Players))
	copy(out, p.Players)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	return out
}

// Find returns the result for the given settlement name.
func (p *Payout) Find(name string) (PlayerResult, bool) {
	for _, pl := range p.Players {
		if pl.Name == name {
			return pl, true
		}
	}
	return PlayerResult{}, false
}

func normalize(v float64) float64 {
	if math.Abs(v) < Epsilon {
		return 0
	}
	return v
}

func displayName(name string) string {
	if strings.HasPrefix(name, "@") || strings.HasPrefix(name, "$") {
		return name[1:]
	}
	return name
}
