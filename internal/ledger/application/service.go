package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hammerdown/auctionhouse/internal/ledger/domain"
	"github.com/hammerdown/auctionhouse/internal/shared/db"
	"github.com/hammerdown/auctionhouse/internal/shared/logger"
)

var log = logger.GetLogger()

// LedgerService owns balance mutations: deposits and withdrawals from the
// profile page, plus the transfer settlement runs when an auction closes.
type LedgerService struct {
	txm      db.TxManager
	accounts domain.AccountRepository
}

func NewLedgerService(txm db.TxManager, accounts domain.AccountRepository) *LedgerService {
	return &LedgerService{txm: txm, accounts: accounts}
}

// Balance returns the user's current balance.
func (s *LedgerService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	account, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger: failed to get account %s: %w", userID, err)
	}
	return account.Balance, nil
}

// Deposit credits the user's balance and returns the new balance.
func (s *LedgerService) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.apply(ctx, userID, amount, func(a *domain.Account) error { return a.Credit(amount) })
}

// Withdraw debits the user's balance and returns the new balance. The debit
// fails closed when the balance is short.
func (s *LedgerService) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.apply(ctx, userID, amount, func(a *domain.Account) error { return a.Debit(amount) })
}

// apply runs one balance mutation under the user's row lock.
func (s *LedgerService) apply(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, op func(*domain.Account) error) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := s.accounts.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger: failed to lock account %s: %w", userID, err)
	}
	if err := op(account); err != nil {
		return decimal.Zero, err
	}
	if err := s.accounts.SaveBalance(ctx, tx, account); err != nil {
		return decimal.Zero, fmt.Errorf("ledger: failed to save account %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("ledger: failed to commit transaction: %w", err)
	}

	log.Info("ledger operation applied",
		zap.String("userID", userID.String()),
		zap.String("amount", amount.String()),
		zap.String("newBalance", account.Balance.String()),
	)
	return account.Balance, nil
}

// Transfer moves amount from one user to another inside the caller's open
// transaction. Settlement uses this so the debit, the credit and the auction
// finalization commit or roll back as one unit.
func (s *LedgerService) Transfer(ctx context.Context, tx db.Tx, fromID, toID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	// Lock both rows in a fixed order so two settlements touching the same
	// pair of users cannot deadlock.
	firstID, secondID := fromID, toID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}
	locked := make(map[uuid.UUID]*domain.Account, 2)
	for _, id := range []uuid.UUID{firstID, secondID} {
		account, err := s.accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("ledger: failed to lock account %s: %w", id, err)
		}
		locked[id] = account
	}
	from, to := locked[fromID], locked[toID]
	if err := from.Debit(amount); err != nil {
		return err
	}
	if err := to.Credit(amount); err != nil {
		return err
	}
	if err := s.accounts.SaveBalance(ctx, tx, from); err != nil {
		return fmt.Errorf("ledger: failed to save source account: %w", err)
	}
	if err := s.accounts.SaveBalance(ctx, tx, to); err != nil {
		return fmt.Errorf("ledger: failed to save destination account: %w", err)
	}
	return nil
}
