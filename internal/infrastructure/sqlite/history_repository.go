package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/history"
)

// HistoryRepository implements history.Repository.
type HistoryRepository struct {
	q querier
}

func (r *HistoryRepository) InsertSessionSnapshots(ctx context.Context, snapshots []*history.SessionSnapshot) error {
	for _, s := range snapshots {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO session_snapshots (id, game_id, user_id, cash_in, cash_out, session_net, snapshotted_at)
			VALUES (?,?,?,?,?,?,?)
		`, s.ID, s.GameID, s.UserID, s.CashIn, s.CashOut, s.SessionNet, toMillis(s.SnapshottedAt)); err != nil {
			return err
		}
	}
	return nil
}

func (r *HistoryRepository) InsertGuestSnapshots(ctx context.Context, snapshots []*history.GuestSnapshot) error {
	for _, s := range snapshots {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO guest_snapshots (id, game_id, guest_name, cash_in, cash_out, session_net, snapshotted_at)
			VALUES (?,?,?,?,?,?,?)
		`, s.ID, s.GameID, s.GuestName, s.CashIn, s.CashOut, s.SessionNet, toMillis(s.SnapshottedAt)); err != nil {
			return err
		}
	}
	return nil
}

func (r *HistoryRepository) ListSessionSnapshots(ctx context.Context, gameID uuid.UUID) ([]*history.SessionSnapshot, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, game_id, user_id, cash_in, cash_out, session_net, snapshotted_at
		FROM session_snapshots WHERE game_id = ?
		ORDER BY snapshotted_at, rowid
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*history.SessionSnapshot
	for rows.Next() {
		var s history.SessionSnapshot
		var at int64
		if err := rows.Scan(&s.ID, &s.GameID, &s.UserID, &s.CashIn, &s.CashOut, &s.SessionNet, &at); err != nil {
			return nil, err
		}
		s.SnapshottedAt = fromMillis(at)
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) ListGuestSnapshots(ctx context.Context, gameID uuid.UUID) ([]*history.GuestSnapshot, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, game_id, guest_name, cash_in, cash_out, session_net, snapshotted_at
		FROM guest_snapshots WHERE game_id = ?
		ORDER BY snapshotted_at, rowid
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*history.GuestSnapshot
	for rows.Next() {
		var s history.GuestSnapshot
		var at int64
		if err := rows.Scan(&s.ID, &s.GameID, &s.GuestName, &s.CashIn, &s.CashOut, &s.SessionNet, &at); err != nil {
			return nil, err
		}
		s.SnapshottedAt = fromMillis(at)
		out = append(out, &s)
	}
	return out, rows.Err()
}
