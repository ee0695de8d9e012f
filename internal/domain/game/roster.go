package game

import (
	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/profile"
	"github.com/homegame/homegame/internal/domain/settlement"
)

// NameParticipants sets each participant's DisplayName from ids, adding a
// numeric suffix to repeats in join order. Ids missing from the map get the
// placeholder label.
func NameParticipants(participants []*Participant, ids map[uuid.UUID]profile.Identity) {
	namer := settlement.NewNamer()
	for _, p := range participants {
		label := profile.Placeholder(p.UserID)
		if id, ok := ids[p.UserID]; ok && id.Label != "" {
			label = id.Label
		}
		p.DisplayName = namer.Unique(label)
	}
}

// Roster is the settle-eligible view of a game: approved participants plus
// guests with a nonzero amount, each under a unique settlement name.
type Roster struct {
	Entries []settlement.Entry
	users   map[string]uuid.UUID
	guests  map[string]*Guest
}

// NewRoster builds a roster from named participants. Rows that are not
// approved and guests with no amounts are left out.
func NewRoster(participants []*Participant, guests []*Guest) *Roster {
	r := &Roster{
		users:  make(map[string]uuid.UUID),
		guests: make(map[string]*Guest),
	}
	namer := settlement.NewNamer()
	for _, p := range participants {
		if p.Status != ParticipantApproved {
			continue
		}
		name := namer.Unique(p.DisplayName)
		r.users[name] = p.UserID
		r.Entries = append(r.Entries, settlement.Entry{Name: name, CashIn: p.CashIn(), CashOut: p.CashOut()})
	}
	for _, g := range guests {
		if !g.Eligible() {
			continue
		}
		name := namer.Unique(g.SettlementName())
		r.guests[name] = g
		r.Entries = append(r.Entries, settlement.Entry{Name: name, CashIn: g.CashIn, CashOut: g.CashOut})
	}
	return r
}

// Len is the number of settle-eligible parties.
func (r *Roster) Len() int {
	return len(r.Entries)
}

// UserID maps a settlement name back to the participant it was built from.
func (r *Roster) UserID(name string) (uuid.UUID, bool) {
	id, ok := r.users[name]
	return id, ok
}

// IsGuest reports whether name belongs to a guest.
func (r *Roster) IsGuest(name string) bool {
	_, ok := r.guests[name]
	return ok
}

// Settle runs the settlement engine over the roster.
func (r *Roster) Settle() (*settlement.Payout, error) {
	if r.Len() < 2 {
		return nil, ErrInsufficientParticipants
	}
	return settlement.Calculate(r.Entries)
}
