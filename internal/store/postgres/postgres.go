// Package postgres is the core.Store backed by PostgreSQL through pgx.
//
// Statements are built with squirrel using $n placeholders. Unique index
// violations come back as core.ErrConflict and missing rows as
// core.ErrNotFound; every other driver error is left for the service to
// classify as core.ErrStorage.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/PartsInventory/internal/config"
	"github.com/JonMunkholm/PartsInventory/internal/core"
)

// querier is what *pgxpool.Pool and pgx.Tx have in common.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements core.Store. The zero value is not usable; call New.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	sb   sq.StatementBuilderType
	tx   bool
}

var _ core.Store = (*Store)(nil)

// New returns a Store over pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool, sb: builder()}
}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Connect opens a pool with the configured limits and pings it.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// InTx runs fn inside one database transaction. A nested call joins the
// outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	if s.tx {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, q: tx, sb: s.sb, tx: true})
	})
}

const uniqueViolation = "23505"

// classify maps driver errors onto core kinds. what names the entity for
// not-found messages.
func classify(err error, what string, key any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v %w", what, key, core.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s already exists (%s): %w", core.ErrConflict, what, pgErr.ConstraintName, err)
	}
	return err
}

// execOne runs a statement that must touch exactly one row.
func (s *Store) execOne(ctx context.Context, b sq.Sqlizer, what string, key any) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return classify(err, what, key)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %v %w", what, key, core.ErrNotFound)
	}
	return nil
}

func (s *Store) count(ctx context.Context, b sq.SelectBuilder) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) exists(ctx context.Context, b sq.SelectBuilder) (bool, error) {
	query, args, err := b.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, err
	}
	var ok bool
	if err := s.q.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// nullID stores 0 and nil ids as NULL.
func nullID(id *int64) any {
	if id == nil || *id == 0 {
		return nil
	}
	return *id
}
