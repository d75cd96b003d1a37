package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerdown/auctionhouse/internal/ledger/domain"
	"github.com/hammerdown/auctionhouse/internal/shared/db"
)

// AccountRepository implements domain.AccountRepository on PostgreSQL.
// Balances live on the users row; GetForUpdate locks that row so concurrent
// operations on one user's funds serialize.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	account := &domain.Account{UserID: userID}
	err := r.pool.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&account.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx db.Tx, userID uuid.UUID) (*domain.Account, error) {
	ptx, err := db.UnwrapPgx(tx)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{UserID: userID}
	err = ptx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&account.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) SaveBalance(ctx context.Context, tx db.Tx, account *domain.Account) error {
	ptx, err := db.UnwrapPgx(tx)
	if err != nil {
		return err
	}
	tag, err := ptx.Exec(ctx,
		`UPDATE users SET balance = $2, updated_at = $3 WHERE id = $1`,
		account.UserID, account.Balance, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
