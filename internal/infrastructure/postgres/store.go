package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/history"
	"github.com/homegame/homegame/internal/domain/profile"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Store implements game.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	unitOfWork
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, unitOfWork: unitOfWork{q: pool}}
}

// WithinTx runs fn in one transaction, committing only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(game.UnitOfWork) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(unitOfWork{q: tx})
	})
}

type unitOfWork struct {
	q querier
}

func (u unitOfWork) Games() game.Repository       { return &GameRepository{q: u.q} }
func (u unitOfWork) History() history.Repository  { return &HistoryRepository{q: u.q} }
func (u unitOfWork) Profiles() profile.Repository { return &ProfileRepository{q: u.q} }

var (
	_ game.Store         = (*Store)(nil)
	_ game.Repository    = (*GameRepository)(nil)
	_ history.Repository = (*HistoryRepository)(nil)
	_ profile.Repository = (*ProfileRepository)(nil)
)

const uniqueViolation = "23505"

func conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", game.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// sendBatch runs every queued statement and returns the first error.
func sendBatch(ctx context.Context, q querier, b *pgx.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	return q.SendBatch(ctx, b).Close()
}
