package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/profile"
)

// ProfileRepository implements profile.Repository.
type ProfileRepository struct {
	q querier
}

const profileColumns = `id, display_name, handle, email, public, net_profit, created_at, updated_at`

func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = COALESCE(profiles.display_name, excluded.display_name),
			email = COALESCE(profiles.email, excluded.email),
			updated_at = excluded.updated_at
	`, p.ID, nullString(p.DisplayName), nullString(p.Handle), nullString(p.Email), p.Public, p.NetProfit,
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	return conflict(err)
}

func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE profiles SET display_name = ?, handle = ?, public = ?, updated_at = ?
		WHERE id = ?
	`, nullString(p.DisplayName), nullString(p.Handle), p.Public, toMillis(p.UpdatedAt), p.ID)
	return conflict(err)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*profile.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id IN (`+placeholders(len(ids))+`)`, uuidArgs(ids)...)
}

func (r *ProfileRepository) ApplyProfitDeltas(ctx context.Context, records []*profile.ProfitRecord) error {
	for _, rec := range records {
		at := toMillis(rec.RecordedAt)
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO profiles (id, public, net_profit, created_at, updated_at)
			VALUES (?, 1, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				net_profit = profiles.net_profit + excluded.net_profit,
				updated_at = excluded.updated_at
		`, rec.UserID, rec.ProfitDelta, at, at); err != nil {
			return err
		}
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO profit_records (id, user_id, game_id, profit_delta, recorded_at)
			VALUES (?,?,?,?,?)
		`, rec.ID, rec.UserID, rec.GameID, rec.ProfitDelta, at); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProfileRepository) ListProfitRecords(ctx context.Context, userID uuid.UUID) ([]*profile.ProfitRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, game_id, profit_delta, recorded_at
		FROM profit_records WHERE user_id = ?
		ORDER BY recorded_at, rowid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*profile.ProfitRecord
	for rows.Next() {
		var rec profile.ProfitRecord
		var at int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.GameID, &rec.ProfitDelta, &at); err != nil {
			return nil, err
		}
		rec.RecordedAt = fromMillis(at)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *ProfileRepository) ListLeaderboard(ctx context.Context, limit int) ([]*profile.Profile, error) {
	return r.list(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE public = 1
		ORDER BY net_profit DESC, id
		LIMIT ?
	`, limit)
}

func (r *ProfileRepository) list(ctx context.Context, query string, args ...any) ([]*profile.Profile, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
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

func scanProfile(row scanner) (*profile.Profile, error) {
	var p profile.Profile
	var name, handle, email sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &name, &handle, &email, &p.Public, &p.NetProfit, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.DisplayName, p.Handle, p.Email = stringPtr(name), stringPtr(handle), stringPtr(email)
	p.CreatedAt, p.UpdatedAt = fromMillis(createdAt), fromMillis(updatedAt)
	return &p, nil
}
