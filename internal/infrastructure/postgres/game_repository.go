package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/homegame/homegame/internal/domain/game"
)

// GameRepository implements game.Repository.
type GameRepository struct {
	q querier
}

func (r *GameRepository) CreateGame(ctx context.Context, g *game.Game) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO games
		(game_id, short_code, host_id, description, status, created_at, updated_at, ended_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, g.ID, g.ShortCode, g.HostID, g.Description, g.Status, g.CreatedAt, g.UpdatedAt, g.EndedAt)
	return conflict(err)
}

func (r *GameRepository) GetGame(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	row := r.q.QueryRow(ctx, `
		SELECT game_id, short_code, host_id, description, status, created_at, updated_at, ended_at
		FROM games WHERE game_id=$1
	`, id)
	return scanGame(row)
}

func (r *GameRepository) LockGame(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	row := r.q.QueryRow(ctx, `
		SELECT game_id, short_code, host_id, description, status, created_at, updated_at, ended_at
		FROM games WHERE game_id=$1
		FOR UPDATE
	`, id)
	return scanGame(row)
}

func (r *GameRepository) GetGameByShortCode(ctx context.Context, code string) (*game.Game, error) {
	row := r.q.QueryRow(ctx, `
		SELECT game_id, short_code, host_id, description, status, created_at, updated_at, ended_at
		FROM games WHERE short_code=$1
	`, code)
	return scanGame(row)
}

func (r *GameRepository) UpdateGame(ctx context.Context, g *game.Game) error {
	_, err := r.q.Exec(ctx, `
		UPDATE games
		SET host_id=$1, description=$2, status=$3, updated_at=$4, ended_at=$5
		WHERE game_id=$6
	`, g.HostID, g.Description, g.Status, g.UpdatedAt, g.EndedAt, g.ID)
	return err
}

func (r *GameRepository) ListGamesForUser(ctx context.Context, userID uuid.UUID) ([]*game.Membership, error) {
	rows, err := r.q.Query(ctx, `
		SELECT g.game_id, g.short_code, g.host_id, g.description, g.status, g.created_at, g.updated_at, g.ended_at, p.status
		FROM game_participants p
		JOIN games g ON g.game_id = p.game_id
		WHERE p.user_id=$1
		ORDER BY g.created_at DESC, g.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*game.Membership
	for rows.Next() {
		var g game.Game
		m := &game.Membership{Game: &g}
		if err := rows.Scan(&g.ID, &g.ShortCode, &g.HostID, &g.Description, &g.Status, &g.CreatedAt, &g.UpdatedAt, &g.EndedAt, &m.Status); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *GameRepository) CreateParticipant(ctx context.Context, p *game.Participant) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO game_participants
		(game_id, user_id, status, cash_in, cash_out, requested_cash_in, requested_cash_out, joined_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, p.GameID, p.UserID, p.Status, p.ConfirmedCashIn, p.ConfirmedCashOut, p.RequestedCashIn, p.RequestedCashOut, p.JoinedAt, p.UpdatedAt)
	return conflict(err)
}

func (r *GameRepository) GetParticipant(ctx context.Context, gameID, userID uuid.UUID) (*game.Participant, error) {
	row := r.q.QueryRow(ctx, `
		SELECT game_id, user_id, status, cash_in, cash_out, requested_cash_in, requested_cash_out, joined_at, updated_at
		FROM game_participants WHERE game_id=$1 AND user_id=$2
	`, gameID, userID)
	return scanParticipant(row)
}

func (r *GameRepository) ListParticipants(ctx context.Context, gameID uuid.UUID, filter game.ParticipantFilter) ([]*game.Participant, error) {
	query := `SELECT game_id, user_id, status, cash_in, cash_out, requested_cash_in, requested_cash_out, joined_at, updated_at
		FROM game_participants WHERE game_id=$1`
	args := []interface{}{gameID}
	if filter.Status != nil {
		query += " AND status=$2"
		args = append(args, *filter.Status)
	}
	query += " ORDER BY joined_at, id"

	rows, err := r.q.Query(ctx, query, args...)
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
	_, err := r.q.Exec(ctx, `
		UPDATE game_participants
		SET status=$1, cash_in=$2, cash_out=$3, requested_cash_in=$4, requested_cash_out=$5, updated_at=$6
		WHERE game_id=$7 AND user_id=$8
	`, p.Status, p.ConfirmedCashIn, p.ConfirmedCashOut, p.RequestedCashIn, p.RequestedCashOut, p.UpdatedAt, p.GameID, p.UserID)
	return err
}

func (r *GameRepository) ClearAmounts(ctx context.Context, gameID uuid.UUID) error {
	_, err := r.q.Exec(ctx, `
		UPDATE game_participants
		SET cash_in=NULL, cash_out=NULL, requested_cash_in=NULL, requested_cash_out=NULL, updated_at=now()
		WHERE game_id=$1
	`, gameID)
	return err
}

func (r *GameRepository) CreateGuest(ctx context.Context, g *game.Guest) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO game_guests (guest_id, game_id, name, cash_in, cash_out, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, g.ID, g.GameID, g.Name, g.CashIn, g.CashOut, g.CreatedAt, g.UpdatedAt)
	return conflict(err)
}

func (r *GameRepository) GetGuest(ctx context.Context, gameID, guestID uuid.UUID) (*game.Guest, error) {
	row := r.q.QueryRow(ctx, `
		SELECT guest_id, game_id, name, cash_in, cash_out, created_at, updated_at
		FROM game_guests WHERE game_id=$1 AND guest_id=$2
	`, gameID, guestID)
	return scanGuest(row)
}

func (r *GameRepository) ListGuests(ctx context.Context, gameID uuid.UUID) ([]*game.Guest, error) {
	rows, err := r.q.Query(ctx, `
		SELECT guest_id, game_id, name, cash_in, cash_out, created_at, updated_at
		FROM game_guests WHERE game_id=$1
		ORDER BY created_at, id
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
	_, err := r.q.Exec(ctx, `
		UPDATE game_guests SET name=$1, cash_in=$2, cash_out=$3, updated_at=$4
		WHERE game_id=$5 AND guest_id=$6
	`, g.Name, g.CashIn, g.CashOut, g.UpdatedAt, g.GameID, g.ID)
	return err
}

func (r *GameRepository) DeleteGuest(ctx context.Context, gameID, guestID uuid.UUID) error {
	_, err := r.q.Exec(ctx, `DELETE FROM game_guests WHERE game_id=$1 AND guest_id=$2`, gameID, guestID)
	return err
}

func (r *GameRepository) DeleteGuests(ctx context.Context, gameID uuid.UUID) error {
	_, err := r.q.Exec(ctx, `DELETE FROM game_guests WHERE game_id=$1`, gameID)
	return err
}

func scanGame(row pgx.Row) (*game.Game, error) {
	var g game.Game
	if err := row.Scan(&g.ID, &g.ShortCode, &g.HostID, &g.Description, &g.Status, &g.CreatedAt, &g.UpdatedAt, &g.EndedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func scanParticipant(row pgx.Row) (*game.Participant, error) {
	var p game.Participant
	if err := row.Scan(&p.GameID, &p.UserID, &p.Status, &p.ConfirmedCashIn, &p.ConfirmedCashOut, &p.RequestedCashIn, &p.RequestedCashOut, &p.JoinedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func scanGuest(row pgx.Row) (*game.Guest, error) {
	var g game.Guest
	if err := row.Scan(&g.ID, &g.GameID, &g.Name, &g.CashIn, &g.CashOut, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}
