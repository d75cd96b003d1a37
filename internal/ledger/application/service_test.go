package application

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammerdown/auctionhouse/internal/ledger/domain"
	"github.com/hammerdown/auctionhouse/internal/shared/db"
)

// memStore is an in-memory account store shared by the fake transaction
// manager and the fake repository. Writes inside a transaction are buffered
// and applied on commit, so a rollback leaves the store untouched.
type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	accounts map[uuid.UUID]decimal.Decimal
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[uuid.UUID]decimal.Decimal)}
}

func (s *memStore) seed(userID uuid.UUID, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = balance
}

func (s *memStore) balance(userID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[userID]
}

type memTx struct {
	store *memStore
	ops   []func()
	done  bool
}

func (t *memTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	for _, op := range t.ops {
		op()
	}
	t.store.mu.Unlock()
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

type memTxManager struct {
	store *memStore
}

func (m *memTxManager) Begin(ctx context.Context) (db.Tx, error) {
	m.store.txMu.Lock()
	return &memTx{store: m.store}, nil
}

type memAccountRepo struct {
	store *memStore
}

func (r *memAccountRepo) Get(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	balance, ok := r.store.accounts[userID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &domain.Account{UserID: userID, Balance: balance}, nil
}

func (r *memAccountRepo) GetForUpdate(ctx context.Context, tx db.Tx, userID uuid.UUID) (*domain.Account, error) {
	return r.Get(ctx, userID)
}

func (r *memAccountRepo) SaveBalance(ctx context.Context, tx db.Tx, account *domain.Account) error {
	mt := tx.(*memTx)
	userID, balance := account.UserID, account.Balance
	mt.ops = append(mt.ops, func() {
		r.store.accounts[userID] = balance
	})
	return nil
}

func newTestLedger() (*LedgerService, *memStore) {
	store := newMemStore()
	return NewLedgerService(&memTxManager{store: store}, &memAccountRepo{store: store}), store
}

func TestDepositAndWithdraw(t *testing.T) {
	svc, store := newTestLedger()
	userID := uuid.New()
	store.seed(userID, decimal.Zero)
	ctx := context.Background()

	balance, err := svc.Deposit(ctx, userID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))

	balance, err = svc.Withdraw(ctx, userID, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(60)))

	balance, err = svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(60)))
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	svc, store := newTestLedger()
	userID := uuid.New()
	store.seed(userID, decimal.NewFromInt(30))

	_, err := svc.Withdraw(context.Background(), userID, decimal.NewFromInt(31))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, store.balance(userID).Equal(decimal.NewFromInt(30)))
}

func TestInvalidAmountsRejected(t *testing.T) {
	svc, store := newTestLedger()
	userID := uuid.New()
	store.seed(userID, decimal.NewFromInt(10))
	ctx := context.Background()

	_, err := svc.Deposit(ctx, userID, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Withdraw(ctx, userID, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestTransferMovesFundsAtomically(t *testing.T) {
	svc, store := newTestLedger()
	fromID, toID := uuid.New(), uuid.New()
	store.seed(fromID, decimal.NewFromInt(100))
	store.seed(toID, decimal.NewFromInt(5))
	ctx := context.Background()

	txm := &memTxManager{store: store}
	tx, err := txm.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Transfer(ctx, tx, fromID, toID, decimal.NewFromInt(60)))
	require.NoError(t, tx.Commit(ctx))

	assert.True(t, store.balance(fromID).Equal(decimal.NewFromInt(40)))
	assert.True(t, store.balance(toID).Equal(decimal.NewFromInt(65)))
}

func TestTransferInsufficientFundsLeavesBalancesUntouched(t *testing.T) {
	svc, store := newTestLedger()
	fromID, toID := uuid.New(), uuid.New()
	store.seed(fromID, decimal.NewFromInt(10))
	store.seed(toID, decimal.Zero)
	ctx := context.Background()

	txm := &memTxManager{store: store}
	tx, err := txm.Begin(ctx)
	require.NoError(t, err)

	err = svc.Transfer(ctx, tx, fromID, toID, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.NoError(t, tx.Rollback(ctx))

	assert.True(t, store.balance(fromID).Equal(decimal.NewFromInt(10)))
	assert.True(t, store.balance(toID).Equal(decimal.Zero))
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	svc, store := newTestLedger()
	userID := uuid.New()
	store.seed(userID, decimal.NewFromInt(50))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Withdraw(ctx, userID, decimal.NewFromInt(10))
		}()
	}
	wg.Wait()

	// Exactly five of the ten withdrawals can succeed.
	assert.True(t, store.balance(userID).Equal(decimal.Zero))
}
