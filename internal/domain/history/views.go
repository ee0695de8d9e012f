package history

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/settlement"
)

const (
	sessionLabelLayout = "1/2/06 3:04 PM"
	pointLabelLayout   = "1/2 3:04PM"
)

// Session is every snapshot row written by one close or end event.
type Session struct {
	SnapshottedAt time.Time          `json:"snapshottedAt"`
	Label         string             `json:"label"`
	Entries       []settlement.Entry `json:"players"`
}

// Payout settles the session's recorded amounts. Sessions with a single row
// return settlement.ErrInsufficientData.
func (s Session) Payout() (*settlement.Payout, error) {
	return settlement.Calculate(s.Entries)
}

// GroupSessions buckets player and guest rows by snapshot time, oldest first.
// name labels a user and guestName labels a guest; repeated labels within one
// session get a numeric suffix so each group can be settled.
func GroupSessions(players []*SessionSnapshot, guests []*GuestSnapshot, name func(uuid.UUID) string, guestName func(string) string) []Session {
	type bucket struct {
		session *Session
		namer   *settlement.Namer
	}
	byKey := make(map[int64]*bucket)
	get := func(at time.Time) *bucket {
		key := at.UnixMilli()
		b, ok := byKey[key]
		if !ok {
			b = &bucket{
				session: &Session{SnapshottedAt: at, Label: at.Format(sessionLabelLayout)},
				namer:   settlement.NewNamer(),
			}
			byKey[key] = b
		}
		return b
	}
	add := func(b *bucket, label string, in, out float64) {
		b.session.Entries = append(b.session.Entries, settlement.Entry{Name: b.namer.Unique(label), CashIn: in, CashOut: out})
	}
	for _, p := range players {
		add(get(p.SnapshottedAt), name(p.UserID), p.CashIn, p.CashOut)
	}
	for _, g := range guests {
		add(get(g.SnapshottedAt), guestName(g.GuestName), g.CashIn, g.CashOut)
	}

	out := make([]Session, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b.session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SnapshottedAt.Before(out[j].SnapshottedAt)
	})
	return out
}

// Point is one sample of a user's result series.
type Point struct {
	SnapshottedAt time.Time `json:"snapshottedAt"`
	Label         string    `json:"label"`
	Net           float64   `json:"net"`
}

// UserSeries returns the per-session and running-total nets of one user, in
// snapshot order.
func UserSeries(snapshots []*SessionSnapshot, userID uuid.UUID) (perSession, cumulative []Point) {
	var total float64
	for _, s := range snapshots {
		if s.UserID != userID {
			continue
		}
		total += s.SessionNet
		label := s.SnapshottedAt.Format(pointLabelLayout)
		perSession = append(perSession, Point{SnapshottedAt: s.SnapshottedAt, Label: label, Net: s.SessionNet})
		cumulative = append(cumulative, Point{SnapshottedAt: s.SnapshottedAt, Label: label, Net: total})
	}
	return perSession, cumulative
}

// Totals sums session nets per user across the whole game.
func Totals(snapshots []*SessionSnapshot) map[uuid.UUID]float64 {
	out := make(map[uuid.UUID]float64)
	for _, s := range snapshots {
		out[s.UserID] += s.SessionNet
	}
	return out
}
