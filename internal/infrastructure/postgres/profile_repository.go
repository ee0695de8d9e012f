package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/homegame/homegame/internal/domain/profile"
)

// ProfileRepository implements profile.Repository.
type ProfileRepository struct {
	q querier
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO profiles
		(user_id, display_name, handle, email, public, net_profit, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = COALESCE(profiles.display_name, EXCLUDED.display_name),
			email = COALESCE(profiles.email, EXCLUDED.email),
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.DisplayName, p.Handle, p.Email, p.Public, p.NetProfit, p.CreatedAt, p.UpdatedAt)
	return conflict(err)
}

func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	_, err := r.q.Exec(ctx, `
		UPDATE profiles SET display_name=$1, handle=$2, public=$3, updated_at=$4
		WHERE user_id=$5
	`, p.DisplayName, p.Handle, p.Public, p.UpdatedAt, p.ID)
	return conflict(err)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	row := r.q.QueryRow(ctx, `
		SELECT user_id, display_name, handle, email, public, net_profit, created_at, updated_at
		FROM profiles WHERE user_id=$1
	`, id)
	return scanProfile(row)
}

func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*profile.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT user_id, display_name, handle, email, public, net_profit, created_at, updated_at
		FROM profiles WHERE user_id = ANY($1)
	`, ids)
}

func (r *ProfileRepository) ApplyProfitDeltas(ctx context.Context, records []*profile.ProfitRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO profiles (user_id, public, net_profit, created_at, updated_at)
			VALUES ($1, TRUE, $2, $3, $3)
			ON CONFLICT (user_id) DO UPDATE SET
				net_profit = profiles.net_profit + EXCLUDED.net_profit,
				updated_at = EXCLUDED.updated_at
		`, rec.UserID, rec.ProfitDelta, rec.RecordedAt)
		batch.Queue(`
			INSERT INTO profit_records (record_id, user_id, game_id, profit_delta, recorded_at)
			VALUES ($1,$2,$3,$4,$5)
		`, rec.ID, rec.UserID, rec.GameID, rec.ProfitDelta, rec.RecordedAt)
	}
	return sendBatch(ctx, r.q, batch)
}

func (r *ProfileRepository) ListProfitRecords(ctx context.Context, userID uuid.UUID) ([]*profile.ProfitRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT record_id, user_id, game_id, profit_delta, recorded_at
		FROM profit_records WHERE user_id=$1
		ORDER BY recorded_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*profile.ProfitRecord
	for rows.Next() {
		var rec profile.ProfitRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.GameID, &rec.ProfitDelta, &rec.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *ProfileRepository) ListLeaderboard(ctx context.Context, limit int) ([]*profile.Profile, error) {
	return r.list(ctx, `
		SELECT user_id, display_name, handle, email, public, net_profit, created_at, updated_at
		FROM profiles WHERE public
		ORDER BY net_profit DESC, user_id
		LIMIT $1
	`, limit)
}

func (r *ProfileRepository) list(ctx context.Context, query string, args ...interface{}) ([]*profile.Profile, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	var p profile.Profile
	if err := row.Scan(&p.ID, &p.DisplayName, &p.Handle, &p.Email, &p.Public, &p.NetProfit, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
