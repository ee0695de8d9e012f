package history

import (
	"time"

	"github.com/google/uuid"
)

// SessionSnapshot is one identified participant's result for one closed or
// ended session. Rows are append-only.
type SessionSnapshot struct {
	ID            uuid.UUID `json:"id"`
	GameID        uuid.UUID `json:"gameId"`
	UserID        uuid.UUID `json:"userId"`
	CashIn        float64   `json:"cashIn"`
	CashOut       float64   `json:"cashOut"`
	SessionNet    float64   `json:"sessionNet"`
	SnapshottedAt time.Time `json:"snapshottedAt"`
}

// GuestSnapshot is the guest counterpart of SessionSnapshot. Guests have no
// lifetime identity so rows are keyed by name only.
type GuestSnapshot struct {
	ID            uuid.UUID `json:"id"`
	GameID        uuid.UUID `json:"gameId"`
	GuestName     string    `json:"guestName"`
	CashIn        float64   `json:"cashIn"`
	CashOut       float64   `json:"cashOut"`
	SessionNet    float64   `json:"sessionNet"`
	SnapshottedAt time.Time `json:"snapshottedAt"`
}

// NewSessionSnapshot computes the session net as cash out minus cash in.
func NewSessionSnapshot(gameID, userID uuid.UUID, cashIn, cashOut float64, at time.Time) *SessionSnapshot {
	return &SessionSnapshot{
		ID:            uuid.New(),
		GameID:        gameID,
		UserID:        userID,
		CashIn:        cashIn,
		CashOut:       cashOut,
		SessionNet:    cashOut - cashIn,
		SnapshottedAt: at,
	}
}

// NewGuestSnapshot computes the session net as cash out minus cash in.
func NewGuestSnapshot(gameID uuid.UUID, name string, cashIn, cashOut float64, at time.Time) *GuestSnapshot {
	return &GuestSnapshot{
		ID:            uuid.New(),
		GameID:        gameID,
		GuestName:     name,
		CashIn:        cashIn,
		CashOut:       cashOut,
		SessionNet:    cashOut - cashIn,
		SnapshottedAt: at,
	}
}
