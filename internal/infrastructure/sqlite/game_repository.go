package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/game"
)

// GameRepository implements game.Repository.
type GameRepository struct {
	q querier
}

const gameColumns = `id, short_code, host_id, description, status, created_at, updated_at, ended_at`

func (r *GameRepository) CreateGame(ctx context.Context, g *game.Game) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO games (`+gameColumns+`)
		VALUES (?,?,?,?,?,?,?,?)
	`, g.ID, g.ShortCode, g.HostID, g.Description, g.Status, toMillis(g.CreatedAt), toMillis(g.UpdatedAt), nullMillis(g.EndedAt))
	return conflict(err)
}

func (r *GameRepository) GetGame(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	return scanGame(row)
}

// LockGame is GetGame: write transactions begin IMMEDIATE and already hold
// the database write lock.
func (r *GameRepository) LockGame(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	return r.GetGame(ctx, id)
}

func (r *GameRepository) GetGameByShortCode(ctx context.Context, code string) (*game.Game, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE short_code = ?`, code)
	return scanGame(row)
}

func (r *GameRepository) UpdateGame(ctx context.Context, g *game.Game) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE games
		SET host_id = ?, description = ?, status = ?, updated_at = ?, ended_at = ?
		WHERE id = ?
	`, g.HostID, g.Description, g.Status, toMillis(g.UpdatedAt), nullMillis(g.EndedAt), g.ID)
	return err
}

func (r *GameRepository) ListGamesForUser(ctx context.Context, userID uuid.UUID) ([]*game.Membership, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT g.id, g.short_code, g.host_id, g.description, g.status, g.created_at, g.updated_at, g.ended_at, p.status
		FROM game_participants p
		JOIN games g ON g.id = p.game_id
		WHERE p.user_id = ?
		ORDER BY g.created_at DESC, g.rowid DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*game.Membership
	for rows.Next() {
		var m game.Membership
		g, err := scanGameWith(rows, &m.Status)
		if err != nil {
			return nil, err
		}
		m.Game = g
		out = append(out, &m)
	}
	return out, rows.Err()
}

const participantColumns = `game_id, user_id, status, cash_in, cash_out, requested_cash_in, requested_cash_out, joined_at, updated_at`

func (r *GameRepository) CreateParticipant(ctx context.Context, p *game.Participant) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO game_participants (`+participantColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, p.GameID, p.UserID, p.Status,
		nullFloat(p.ConfirmedCashIn), nullFloat(p.ConfirmedCashOut),
		nullFloat(p.RequestedCashIn), nullFloat(p.RequestedCashOut),
		toMillis(p.JoinedAt), toMillis(p.UpdatedAt))
	return conflict(err)
}

func (r *GameRepository) GetParticipant(ctx context.Context, gameID, userID uuid.UUID) (*game.Participant, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+participantColumns+` FROM game_participants WHERE game_id = ? AND user_id = ?
	`, gameID, userID)
	return scanParticipant(row)
}

func (r *GameRepository) ListParticipants(ctx context.Context, gameID uuid.UUID, filter game.ParticipantFilter) ([]*game.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM game_participants WHERE game_id = ?`
	args := []any{gameID}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY joined_at, rowid`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*game.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *GameRepository) UpdateParticipant(ctx context.Context, p *game.Participant) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE game_participants
		SET status = ?, cash_in = ?, cash_out = ?, requested_cash_in = ?, requested_cash_out = ?, updated_at = ?
		WHERE game_id = ? AND user_id = ?
	`, p.Status,
		nullFloat(p.ConfirmedCashIn), nullFloat(p.ConfirmedCashOut),
		nullFloat(p.RequestedCashIn), nullFloat(p.RequestedCashOut),
		toMillis(p.UpdatedAt), p.GameID, p.UserID)
	return err
}

func (r *GameRepository) ClearAmounts(ctx context.Context, gameID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE game_participants
		SET cash_in = NULL, cash_out = NULL, requested_cash_in = NULL, requested_cash_out = NULL
		WHERE game_id = ?
	`, gameID)
	return err
}

const guestColumns = `id, game_id, name, cash_in, cash_out, created_at, updated_at`

func (r *GameRepository) CreateGuest(ctx context.Context, g *game.Guest) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO game_guests (`+guestColumns+`) VALUES (?,?,?,?,?,?,?)
	`, g.ID, g.GameID, g.Name, g.CashIn, g.CashOut, toMillis(g.CreatedAt), toMillis(g.UpdatedAt))
	return conflict(err)
}

func (r *GameRepository) GetGuest(ctx context.Context, gameID, guestID uuid.UUID) (*game.Guest, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+guestColumns+` FROM game_guests WHERE game_id = ? AND id = ?
	`, gameID, guestID)
	return scanGuest(row)
}

func (r *GameRepository) ListGuests(ctx context.Context, gameID uuid.UUID) ([]*game.Guest, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+guestColumns+` FROM game_guests WHERE game_id = ? ORDER BY created_at, rowid
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*game.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GameRepository) UpdateGuest(ctx context.Context, g *game.Guest) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE game_guests SET name = ?, cash_in = ?, cash_out = ?, updated_at = ?
		WHERE game_id = ? AND id = ?
	`, g.Name, g.CashIn, g.CashOut, toMillis(g.UpdatedAt), g.GameID, g.ID)
	return err
}

func (r *GameRepository) DeleteGuest(ctx context.Context, gameID, guestID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM game_guests WHERE game_id = ? AND id = ?`, gameID, guestID)
	return err
}

func (r *GameRepository) DeleteGuests(ctx context.Context, gameID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM game_guests WHERE game_id = ?`, gameID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*game.Game, error) {
	g, err := scanGameWith(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func scanGameWith(row scanner, extra ...any) (*game.Game, error) {
	var g game.Game
	var createdAt, updatedAt int64
	var endedAt sql.NullInt64
	dest := append([]any{&g.ID, &g.ShortCode, &g.HostID, &g.Description, &g.Status, &createdAt, &updatedAt, &endedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)
	if endedAt.Valid {
		t := fromMillis(endedAt.Int64)
		g.EndedAt = &t
	}
	return &g, nil
}

func scanParticipant(row scanner) (*game.Participant, error) {
	var p game.Participant
	var in, out, reqIn, reqOut sql.NullFloat64
	var joinedAt, updatedAt int64
	if err := row.Scan(&p.GameID, &p.UserID, &p.Status, &in, &out, &reqIn, &reqOut, &joinedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ConfirmedCashIn, p.ConfirmedCashOut = floatPtr(in), floatPtr(out)
	p.RequestedCashIn, p.RequestedCashOut = floatPtr(reqIn), floatPtr(reqOut)
	p.JoinedAt, p.UpdatedAt = fromMillis(joinedAt), fromMillis(updatedAt)
	return &p, nil
}

func scanGuest(row scanner) (*game.Guest, error) {
	var g game.Guest
	var createdAt, updatedAt int64
	if err := row.Scan(&g.ID, &g.GameID, &g.Name, &g.CashIn, &g.CashOut, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	g.CreatedAt, g.UpdatedAt = fromMillis(createdAt), fromMillis(updatedAt)
	return &g, nil
}
