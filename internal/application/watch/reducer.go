package watch

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/homegame/homegame/internal/domain/game"
)

// State is one read of a game's ledger.
type State struct {
	Game         *game.Game          `json:"game"`
	Participants []*game.Participant `json:"participants"`
	Guests       []*game.Guest       `json:"guests"`
}

func (s *State) clone() *State {
	if s == nil {
		return nil
	}
	out := &State{}
	if s.Game != nil {
		g := *s.Game
		out.Game = &g
	}
	for _, p := range s.Participants {
		cp := *p
		out.Participants = append(out.Participants, &cp)
	}
	for _, g := range s.Guests {
		cp := *g
		out.Guests = append(out.Guests, &cp)
	}
	return out
}

// Participant finds a row by user id.
func (s *State) Participant(userID string) *game.Participant {
	for _, p := range s.Participants {
		if p.UserID.String() == userID {
			return p
		}
	}
	return nil
}

// Reducer holds the authoritative state of a game plus tentative local edits.
// Every accepted snapshot replaces the base and discards all pending edits:
// the newest server read always wins.
type Reducer struct {
	mu       sync.Mutex
	base     *State
	baseJSON []byte
	pending  []func(*State)
}

func NewReducer() *Reducer {
	return &Reducer{}
}

// Propose records a tentative edit shown by View until the next snapshot.
func (r *Reducer) Propose(edit func(*State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, edit)
}

// Accept installs an authoritative snapshot. It reports whether the snapshot
// differs from the previous one.
func (r *Reducer) Accept(s *State) (bool, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := !bytes.Equal(encoded, r.baseJSON)
	r.base = s.clone()
	r.baseJSON = encoded
	r.pending = nil
	return changed, nil
}

// View returns the latest snapshot with pending edits applied. It is nil
// until the first snapshot arrives.
func (r *Reducer) View() *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.base == nil {
		return nil
	}
	view := r.base.clone()
	for _, edit := range r.pending {
		edit(view)
	}
	return view
}

// Pending reports how many tentative edits await confirmation.
func (r *Reducer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
