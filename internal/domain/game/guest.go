package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Guest is an unauthenticated, host-managed player scoped to one session.
type Guest struct {
	ID        uuid.UUID `json:"id"`
	GameID    uuid.UUID `json:"gameId"`
	Name      string    `json:"name"`
	CashIn    float64   `json:"cashIn"`
	CashOut   float64   `json:"cashOut"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewGuest validates and builds a guest row.
func NewGuest(gameID uuid.UUID, name string, cashIn, cashOut float64) (*Guest, error) {
	g := &Guest{ID: uuid.New(), GameID: gameID, CreatedAt: time.Now().UTC()}
	if err := g.Set(name, cashIn, cashOut); err != nil {
		return nil, err
	}
	return g, nil
}

// Set replaces the guest's name and amounts.
func (g *Guest) Set(name string, cashIn, cashOut float64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: guest name is required", ErrInvalidArgument)
	}
	if err := ValidateAmounts(cashIn, cashOut); err != nil {
		return err
	}
	g.Name = name
	g.CashIn = cashIn
	g.CashOut = cashOut
	g.UpdatedAt = time.Now().UTC()
	return nil
}

// Eligible reports whether the guest takes part in settlement.
func (g *Guest) Eligible() bool {
	return g.CashIn != 0 || g.CashOut != 0
}

// SettlementName labels the guest so it cannot collide with identified players.
func (g *Guest) SettlementName() string {
	return GuestLabel(g.Name)
}

// GuestLabel is the presentation form of a guest name.
func GuestLabel(name string) string {
	return name + " (guest)"
}
