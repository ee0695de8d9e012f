package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidHandle is returned for handles containing whitespace.
var ErrInvalidHandle = errors.New("invalid handle")

// Profile is a user's lifetime record across games.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName *string   `json:"displayName,omitempty"`
	Handle      *string   `json:"handle,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Public      bool      `json:"public"`
	NetProfit   float64   `json:"netProfit"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewProfile builds a profile named after name, or the local part of email
// when name is blank.
func NewProfile(id uuid.UUID, name, email string) *Profile {
	now := time.Now().UTC()
	p := &Profile{ID: id, Public: true, CreatedAt: now, UpdatedAt: now}
	if n := DefaultName(name, email); n != "" {
		p.DisplayName = &n
	}
	if e := strings.TrimSpace(email); e != "" {
		p.Email = &e
	}
	return p
}

// DefaultName picks the name a fresh profile starts with.
func DefaultName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}

// Label is the name shown for the user: "@handle" first, then the display
// name, then a stable placeholder derived from the id.
func (p *Profile) Label() string {
	if p == nil {
		return ""
	}
	return Label(p.ID, p.Handle, p.DisplayName)
}

// Label applies the naming rule without a loaded profile.
func Label(id uuid.UUID, handle, name *string) string {
	if h := trimmed(handle); h != "" {
		return "@" + strings.TrimPrefix(h, "@")
	}
	if n := trimmed(name); n != "" {
		return n
	}
	return Placeholder(id)
}

// Placeholder is the label of a user without a profile.
func Placeholder(id uuid.UUID) string {
	return "Player_" + id.String()[:8]
}

// Update holds the caller-editable fields; nil leaves a field unchanged.
type Update struct {
	DisplayName *string `json:"displayName,omitempty"`
	Handle      *string `json:"handle,omitempty"`
	Public      *bool   `json:"public,omitempty"`
}

// Apply merges u into p. Handles are stored without the leading "@".
func (p *Profile) Apply(u Update) error {
	if u.DisplayName != nil {
		p.DisplayName = optional(*u.DisplayName)
	}
	if u.Handle != nil {
		h := strings.TrimPrefix(strings.TrimSpace(*u.Handle), "@")
		if strings.ContainsAny(h, " \t\n") {
			return fmt.Errorf("%w: %q", ErrInvalidHandle, *u.Handle)
		}
		p.Handle = optional(h)
	}
	if u.Public != nil {
		p.Public = *u.Public
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ProfitRecord is one applied lifetime-profit delta. Rows are append-only.
type ProfitRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	GameID      uuid.UUID `json:"gameId"`
	ProfitDelta float64   `json:"profitDelta"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// NewProfitRecord builds an audit row for delta.
func NewProfitRecord(userID, gameID uuid.UUID, delta float64, at time.Time) *ProfitRecord {
	return &ProfitRecord{ID: uuid.New(), UserID: userID, GameID: gameID, ProfitDelta: delta, RecordedAt: at}
}

// Point is one sample of lifetime profit over time.
type Point struct {
	GameID     uuid.UUID `json:"gameId"`
	RecordedAt time.Time `json:"recordedAt"`
	Delta      float64   `json:"delta"`
	Total      float64   `json:"total"`
}

// Cumulative folds profit records (oldest first) into a running total.
func Cumulative(records []*ProfitRecord) []Point {
	out := make([]Point, 0, len(records))
	var total float64
	for _, r := range records {
		total += r.ProfitDelta
		out = append(out, Point{GameID: r.GameID, RecordedAt: r.RecordedAt, Delta: r.ProfitDelta, Total: total})
	}
	return out
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
