package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/history"
)

// Recorder writes the immutable per-session history rows. It runs inside the
// caller's transaction so a failed close or end leaves no rows behind.
type Recorder struct {
	logger zerolog.Logger
}

func NewRecorder(logger zerolog.Logger) *Recorder {
	return &Recorder{logger: logger.With().Str("component", "recorder").Logger()}
}

// Record snapshots every approved participant and every guest with a nonzero
// amount. All rows share at. It returns the number of rows written.
// Close and End from active call it; End from closed does not, since the
// closing snapshot already holds that session.
func (r *Recorder) Record(ctx context.Context, uow game.UnitOfWork, g *game.Game, at time.Time) (int, error) {
	approved := game.ParticipantApproved
	participants, err := uow.Games().ListParticipants(ctx, g.ID, game.ParticipantFilter{Status: &approved})
	if err != nil {
		return 0, fmt.Errorf("list participants: %w", err)
	}
	guests, err := uow.Games().ListGuests(ctx, g.ID)
	if err != nil {
		return 0, fmt.Errorf("list guests: %w", err)
	}

	players := make([]*history.SessionSnapshot, 0, len(participants))
	for _, p := range participants {
		players = append(players, history.NewSessionSnapshot(g.ID, p.UserID, p.CashIn(), p.CashOut(), at))
	}
	var guestRows []*history.GuestSnapshot
	for _, gst := range guests {
		if !gst.Eligible() {
			continue
		}
		guestRows = append(guestRows, history.NewGuestSnapshot(g.ID, gst.Name, gst.CashIn, gst.CashOut, at))
	}

	if err := uow.History().InsertSessionSnapshots(ctx, players); err != nil {
		return 0, fmt.Errorf("insert session snapshots: %w", err)
	}
	if err := uow.History().InsertGuestSnapshots(ctx, guestRows); err != nil {
		return 0, fmt.Errorf("insert guest snapshots: %w", err)
	}

	r.logger.Info().
		Str("game_id", g.ID.String()).
		Int("players", len(players)).
		Int("guests", len(guestRows)).
		Msg("session snapshotted")
	return len(players) + len(guestRows), nil
}
