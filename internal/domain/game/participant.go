package game

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ParticipantStatus represents a player's admission state.
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "pending"
	ParticipantApproved ParticipantStatus = "approved"
	ParticipantDenied   ParticipantStatus = "denied"
)

// Field names one of the two cash columns.
type Field string

const (
	FieldCashIn  Field = "cash_in"
	FieldCashOut Field = "cash_out"
)

// ParseField validates a user-supplied field name.
func ParseField(v string) (Field, error) {
	switch Field(v) {
	case FieldCashIn, FieldCashOut:
		return Field(v), nil
	}
	return "", fmt.Errorf("%w: unknown field %q", ErrInvalidArgument, v)
}

// Participant is one user's seat in one game. Confirmed amounts are the
// authoritative figures used in settlement; requested amounts are what the
// player last reported. Nil means unset.
type Participant struct {
	GameID           uuid.UUID         `json:"gameId"`
	UserID           uuid.UUID         `json:"userId"`
	Status           ParticipantStatus `json:"status"`
	ConfirmedCashIn  *float64          `json:"cashIn"`
	ConfirmedCashOut *float64          `json:"cashOut"`
	RequestedCashIn  *float64          `json:"requestedCashIn"`
	RequestedCashOut *float64          `json:"requestedCashOut"`
	DisplayName      string            `json:"displayName"`
	JoinedAt         time.Time         `json:"joinedAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// NewPendingParticipant builds a join request with zero requested amounts.
func NewPendingParticipant(gameID, userID uuid.UUID) *Participant {
	now := time.Now().UTC()
	return &Participant{
		GameID:           gameID,
		UserID:           userID,
		Status:           ParticipantPending,
		RequestedCashIn:  amount(0),
		RequestedCashOut: amount(0),
		JoinedAt:         now,
		UpdatedAt:        now,
	}
}

// NewApprovedParticipant builds a host-created seat with zero confirmed amounts.
func NewApprovedParticipant(gameID, userID uuid.UUID) *Participant {
	p := NewPendingParticipant(gameID, userID)
	p.Status = ParticipantApproved
	p.ConfirmedCashIn = amount(0)
	p.ConfirmedCashOut = amount(0)
	return p
}

// CashIn returns the confirmed buy-in, treating unset as zero.
func (p *Participant) CashIn() float64 { return value(p.ConfirmedCashIn) }

// CashOut returns the confirmed cash-out, treating unset as zero.
func (p *Participant) CashOut() float64 { return value(p.ConfirmedCashOut) }

// HasPendingRequest reports whether the requested amounts differ from the confirmed ones.
func (p *Participant) HasPendingRequest() bool {
	return value(p.RequestedCashIn) != p.CashIn() || value(p.RequestedCashOut) != p.CashOut()
}

// Approve admits the participant using their requested amounts as the first
// confirmed figures.
func (p *Participant) Approve() {
	p.Status = ParticipantApproved
	in, out := value(p.RequestedCashIn), value(p.RequestedCashOut)
	p.ConfirmedCashIn, p.RequestedCashIn = amount(in), amount(in)
	p.ConfirmedCashOut, p.RequestedCashOut = amount(out), amount(out)
	p.touch()
}

// Deny marks the participant denied; the row and its amounts are kept.
func (p *Participant) Deny() {
	p.Status = ParticipantDenied
	p.touch()
}

// Rejoin moves a denied participant back to pending.
func (p *Participant) Rejoin() error {
	if p.Status != ParticipantDenied {
		return fmt.Errorf("%w: only denied players can request to rejoin (status %s)", ErrInvalidState, p.Status)
	}
	p.Status = ParticipantPending
	p.touch()
	return nil
}

// SetRequested records the participant's self-reported amounts.
func (p *Participant) SetRequested(in, out float64) {
	p.RequestedCashIn = amount(in)
	p.RequestedCashOut = amount(out)
	p.touch()
}

// SetConfirmed overwrites the confirmed amounts and clears any request diff.
func (p *Participant) SetConfirmed(in, out float64) {
	p.ConfirmedCashIn, p.RequestedCashIn = amount(in), amount(in)
	p.ConfirmedCashOut, p.RequestedCashOut = amount(out), amount(out)
	p.touch()
}

// AcceptRequested copies one requested field into its confirmed counterpart.
func (p *Participant) AcceptRequested(f Field) {
	switch f {
	case FieldCashIn:
		v := value(p.RequestedCashIn)
		p.ConfirmedCashIn, p.RequestedCashIn = amount(v), amount(v)
	case FieldCashOut:
		v := value(p.RequestedCashOut)
		p.ConfirmedCashOut, p.RequestedCashOut = amount(v), amount(v)
	}
	p.touch()
}

// RejectRequested resets one requested field back to its confirmed value.
func (p *Participant) RejectRequested(f Field) {
	switch f {
	case FieldCashIn:
		p.RequestedCashIn = amount(p.CashIn())
	case FieldCashOut:
		p.RequestedCashOut = amount(p.CashOut())
	}
	p.touch()
}

// ValidateAmounts rejects negative, NaN and infinite cash figures.
func ValidateAmounts(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: amounts must be finite and non-negative", ErrInvalidArgument)
		}
	}
	return nil
}

func (p *Participant) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func amount(v float64) *float64 {
	return &v
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
