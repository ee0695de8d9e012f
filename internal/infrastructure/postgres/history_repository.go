package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/homegame/homegame/internal/domain/history"
)

// HistoryRepository implements history.Repository.
type HistoryRepository struct {
	q querier
}

func (r *HistoryRepository) InsertSessionSnapshots(ctx context.Context, snapshots []*history.SessionSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"session_snapshots"},
		[]string{"snapshot_id", "game_id", "user_id", "cash_in", "cash_out", "session_net", "snapshotted_at"},
		pgx.CopyFromSlice(len(snapshots), func(i int) ([]any, error) {
			s := snapshots[i]
			return []any{s.ID, s.GameID, s.UserID, s.CashIn, s.CashOut, s.SessionNet, s.SnapshottedAt}, nil
		}),
	)
	return err
}

func (r *HistoryRepository) InsertGuestSnapshots(ctx context.Context, snapshots []*history.GuestSnapshot) error {
	batch := &pgx.Batch{}
	for _, s := range snapshots {
		batch.Queue(`
			INSERT INTO guest_snapshots (snapshot_id, game_id, guest_name, cash_in, cash_out, session_net, snapshotted_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, s.ID, s.GameID, s.GuestName, s.CashIn, s.CashOut, s.SessionNet, s.SnapshottedAt)
	}
	return sendBatch(ctx, r.q, batch)
}

func (r *HistoryRepository) ListSessionSnapshots(ctx context.Context, gameID uuid.UUID) ([]*history.SessionSnapshot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT snapshot_id, game_id, user_id, cash_in, cash_out, session_net, snapshotted_at
		FROM session_snapshots WHERE game_id=$1
		ORDER BY snapshotted_at, id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*history.SessionSnapshot
	for rows.Next() {
		var s history.SessionSnapshot
		if err := rows.Scan(&s.ID, &s.GameID, &s.UserID, &s.CashIn, &s.CashOut, &s.SessionNet, &s.SnapshottedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) ListGuestSnapshots(ctx context.Context, gameID uuid.UUID) ([]*history.GuestSnapshot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT snapshot_id, game_id, guest_name, cash_in, cash_out, session_net, snapshotted_at
		FROM guest_snapshots WHERE game_id=$1
		ORDER BY snapshotted_at, id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*history.GuestSnapshot
	for rows.Next() {
		var s history.GuestSnapshot
		if err := rows.Scan(&s.ID, &s.GameID, &s.GuestName, &s.CashIn, &s.CashOut, &s.SessionNet, &s.SnapshottedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
