package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx is the slice of a database transaction the application layer depends on.
// *pgx.Tx satisfies it; service tests substitute their own implementation so
// use cases run without Postgres.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager begins transactions. Every use case that mutates an aggregate
// opens exactly one transaction through it.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// PoolTxManager is the pgxpool-backed TxManager used in production.
type PoolTxManager struct {
	pool *pgxpool.Pool
}

func NewPoolTxManager(pool *pgxpool.Pool) *PoolTxManager {
	return &PoolTxManager{pool: pool}
}

func (m *PoolTxManager) Begin(ctx context.Context) (Tx, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("db: failed to begin transaction: %w", err)
	}
	return tx, nil
}

// UnwrapPgx recovers the concrete pgx transaction from a Tx. Repositories
// call it at their boundary; anything else handed in is a programming error.
func UnwrapPgx(tx Tx) (pgx.Tx, error) {
	concrete, ok := tx.(pgx.Tx)
	if !ok {
		return nil, fmt.Errorf("db: transaction does not wrap a pgx transaction")
	}
	return concrete, nil
}

// NewPool connects a pgx connection pool and verifies it with a ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: unable to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: pool ping failed: %w", err)
	}
	return pool, nil
}
