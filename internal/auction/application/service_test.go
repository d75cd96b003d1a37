package application

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammerdown/auctionhouse/internal/auction/domain"
	ledgerapp "github.com/hammerdown/auctionhouse/internal/ledger/application"
	ledgerdomain "github.com/hammerdown/auctionhouse/internal/ledger/domain"
	"github.com/hammerdown/auctionhouse/internal/shared/db"
	userdomain "github.com/hammerdown/auctionhouse/internal/user/domain"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeClock is a settable clock so tests can move an auction through its
// phases without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memStore holds all state behind the fake repositories. Transactional
// writes are buffered on the transaction and applied on commit, so a
// rollback leaves the store untouched. A store-wide transaction mutex
// stands in for row locking: it serializes whole transactions the way
// SELECT FOR UPDATE serializes them per aggregate.
type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	auctions map[uuid.UUID]*domain.Auction
	accounts map[uuid.UUID]decimal.Decimal
	users    map[uuid.UUID]string
}

func newMemStore() *memStore {
	return &memStore{
		auctions: make(map[uuid.UUID]*domain.Auction),
		accounts: make(map[uuid.UUID]decimal.Decimal),
		users:    make(map[uuid.UUID]string),
	}
}

func (s *memStore) addUser(username string, balance decimal.Decimal) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = username
	s.accounts[id] = balance
	return id
}

func (s *memStore) balance(userID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[userID]
}

func (s *memStore) setBalance(userID uuid.UUID, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = balance
}

func (s *memStore) auction(id uuid.UUID) *domain.Auction {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil
	}
	return cloneAuction(a)
}

func cloneAuction(a *domain.Auction) *domain.Auction {
	c := *a
	c.Bids = make([]*domain.Bid, len(a.Bids))
	for i, b := range a.Bids {
		bid := *b
		c.Bids[i] = &bid
	}
	return &c
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

type memAuctionRepo struct {
	store *memStore
}

func (r *memAuctionRepo) Create(ctx context.Context, tx db.Tx, a *domain.Auction) error {
	snapshot := cloneAuction(a)
	tx.(*memTx).ops = append(tx.(*memTx).ops, func() {
		r.store.auctions[snapshot.ID] = snapshot
	})
	return nil
}

func (r *memAuctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	a := r.store.auction(id)
	if a == nil {
		return nil, domain.ErrAuctionNotFound
	}
	return a, nil
}

func (r *memAuctionRepo) GetForUpdate(ctx context.Context, tx db.Tx, id uuid.UUID) (*domain.Auction, error) {
	return r.GetByID(ctx, id)
}

func (r *memAuctionRepo) Save(ctx context.Context, tx db.Tx, a *domain.Auction) error {
	snapshot := cloneAuction(a)
	tx.(*memTx).ops = append(tx.(*memTx).ops, func() {
		r.store.auctions[snapshot.ID] = snapshot
	})
	return nil
}

func (r *memAuctionRepo) Delete(ctx context.Context, tx db.Tx, id uuid.UUID) error {
	tx.(*memTx).ops = append(tx.(*memTx).ops, func() {
		delete(r.store.auctions, id)
	})
	return nil
}

func (r *memAuctionRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Auction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.Auction
	for _, a := range r.store.auctions {
		if a.SellerID == sellerID {
			out = append(out, cloneAuction(a))
		}
	}
	return out, nil
}

func (r *memAuctionRepo) ListOpen(ctx context.Context) ([]*domain.Auction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.Auction
	for _, a := range r.store.auctions {
		if !a.Finalized {
			out = append(out, cloneAuction(a))
		}
	}
	return out, nil
}

// memBidRepo is a no-op: bids persist as part of the auction aggregate in
// the fake store.
type memBidRepo struct{}

func (memBidRepo) Insert(ctx context.Context, tx db.Tx, bid *domain.Bid) error {
	return nil
}

type memAccountRepo struct {
	store *memStore
}

func (r *memAccountRepo) Get(ctx context.Context, userID uuid.UUID) (*ledgerdomain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	balance, ok := r.store.accounts[userID]
	if !ok {
		return nil, ledgerdomain.ErrAccountNotFound
	}
	return &ledgerdomain.Account{UserID: userID, Balance: balance}, nil
}

func (r *memAccountRepo) GetForUpdate(ctx context.Context, tx db.Tx, userID uuid.UUID) (*ledgerdomain.Account, error) {
	return r.Get(ctx, userID)
}

func (r *memAccountRepo) SaveBalance(ctx context.Context, tx db.Tx, account *ledgerdomain.Account) error {
	userID, balance := account.UserID, account.Balance
	tx.(*memTx).ops = append(tx.(*memTx).ops, func() {
		r.store.accounts[userID] = balance
	})
	return nil
}

type memUserRepo struct {
	store *memStore
}

func (r *memUserRepo) Create(ctx context.Context, tx db.Tx, u *userdomain.User) error {
	id, username := u.ID, u.Username
	tx.(*memTx).ops = append(tx.(*memTx).ops, func() {
		r.store.users[id] = username
	})
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*userdomain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	username, ok := r.store.users[id]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	return &userdomain.User{ID: id, Username: username}, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, name := range r.store.users {
		if name == username {
			return &userdomain.User{ID: id, Username: name}, nil
		}
	}
	return nil, userdomain.ErrUserNotFound
}

// captureBroadcaster records every published event.
type captureBroadcaster struct {
	mu     sync.Mutex
	events [][]byte
}

func (b *captureBroadcaster) BroadcastToAuction(auctionID string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, data)
}

func (b *captureBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func (b *captureBroadcaster) last() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	return b.events[len(b.events)-1]
}

type fixture struct {
	svc   *Service
	store *memStore
	clk   *fakeClock
	feed  *captureBroadcaster
}

func newFixture() *fixture {
	store := newMemStore()
	clk := &fakeClock{t: testStart}
	feed := &captureBroadcaster{}
	txm := &memTxManager{store: store}
	accounts := &memAccountRepo{store: store}
	ledgerSvc := ledgerapp.NewLedgerService(txm, accounts)
	svc := NewService(
		txm,
		&memAuctionRepo{store: store},
		memBidRepo{},
		accounts,
		&memUserRepo{store: store},
		ledgerSvc,
		clk,
		feed,
	)
	return &fixture{svc: svc, store: store, clk: clk, feed: feed}
}

func (f *fixture) createLiveAuction(t *testing.T, sellerID uuid.UUID, basePrice int64) uuid.UUID {
	t.Helper()
	auction, err := f.svc.CreateListing(context.Background(), sellerID, CreateListingInput{
		ItemName:     "vintage camera",
		BasePrice:    decimal.NewFromInt(basePrice),
		StartDelay:   0,
		LiveDuration: time.Hour,
	})
	require.NoError(t, err)
	return auction.ID
}

func TestSettlementMovesFunds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.Zero)
	bidder := f.store.addUser("bidder", decimal.NewFromInt(100))
	auctionID := f.createLiveAuction(t, seller, 10)

	_, err := f.svc.PlaceBid(ctx, bidder, auctionID, decimal.NewFromInt(50))
	require.NoError(t, err)

	settlement, err := f.svc.EndAuction(ctx, seller, auctionID)
	require.NoError(t, err)
	require.NotNil(t, settlement.Winner)
	assert.Equal(t, bidder, settlement.Winner.BidderID)
	assert.True(t, settlement.Amount.Equal(decimal.NewFromInt(50)))

	assert.True(t, f.store.balance(seller).Equal(decimal.NewFromInt(50)))
	assert.True(t, f.store.balance(bidder).Equal(decimal.NewFromInt(50)))
	assert.True(t, f.store.auction(auctionID).Finalized)
}

func TestEndAuctionNoBids(t *testing.T) {
	f := newFixture()
	seller := f.store.addUser("seller", decimal.NewFromInt(10))
	auctionID := f.createLiveAuction(t, seller, 10)

	settlement, err := f.svc.EndAuction(context.Background(), seller, auctionID)
	require.NoError(t, err)
	assert.True(t, settlement.NoBids())
	assert.True(t, f.store.balance(seller).Equal(decimal.NewFromInt(10)))
	assert.True(t, f.store.auction(auctionID).Finalized)
}

func TestEndAuctionTwiceFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.Zero)
	auctionID := f.createLiveAuction(t, seller, 10)

	_, err := f.svc.EndAuction(ctx, seller, auctionID)
	require.NoError(t, err)

	_, err = f.svc.EndAuction(ctx, seller, auctionID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
}

func TestEndAuctionNotOwner(t *testing.T) {
	f := newFixture()
	seller := f.store.addUser("seller", decimal.Zero)
	stranger := f.store.addUser("stranger", decimal.Zero)
	auctionID := f.createLiveAuction(t, seller, 10)

	_, err := f.svc.EndAuction(context.Background(), stranger, auctionID)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
	assert.False(t, f.store.auction(auctionID).Finalized)
}

func TestWinnerCannotPayLeavesAuctionOpen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.Zero)
	bidder := f.store.addUser("bidder", decimal.NewFromInt(100))
	auctionID := f.createLiveAuction(t, seller, 10)

	_, err := f.svc.PlaceBid(ctx, bidder, auctionID, decimal.NewFromInt(80))
	require.NoError(t, err)

	// The bidder spends elsewhere between bid and settlement.
	f.store.setBalance(bidder, decimal.NewFromInt(20))

	_, err = f.svc.EndAuction(ctx, seller, auctionID)
	assert.ErrorIs(t, err, domain.ErrWinnerCannotPay)

	stored := f.store.auction(auctionID)
	assert.False(t, stored.Finalized)
	assert.True(t, f.store.balance(seller).Equal(decimal.Zero))
	assert.True(t, f.store.balance(bidder).Equal(decimal.NewFromInt(20)))

	// Once the winner is funded again the retry settles normally.
	f.store.setBalance(bidder, decimal.NewFromInt(80))
	settlement, err := f.svc.EndAuction(ctx, seller, auctionID)
	require.NoError(t, err)
	assert.True(t, settlement.Amount.Equal(decimal.NewFromInt(80)))
	assert.True(t, f.store.balance(seller).Equal(decimal.NewFromInt(80)))
}

func TestPlaceBidRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.NewFromInt(1000))
	bidder := f.store.addUser("bidder", decimal.NewFromInt(30))
	auctionID := f.createLiveAuction(t, seller, 10)

	_, err := f.svc.PlaceBid(ctx, bidder, auctionID, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.PlaceBid(ctx, seller, auctionID, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, domain.ErrSelfBid)

	_, err = f.svc.PlaceBid(ctx, bidder, auctionID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrBidTooLow)

	_, err = f.svc.PlaceBid(ctx, bidder, auctionID, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	f.clk.Advance(2 * time.Hour)
	_, err = f.svc.PlaceBid(ctx, bidder, auctionID, decimal.NewFromInt(20))
	assert.ErrorIs(t, err, domain.ErrAuctionNotLive)
}

func TestBidNotAcceptedOnUpcomingAuction(t *testing.T) {
	f := newFixture()
	seller := f.store.addUser("seller", decimal.Zero)
	bidder := f.store.addUser("bidder", decimal.NewFromInt(100))

	auction, err := f.svc.CreateListing(context.Background(), seller, CreateListingInput{
		ItemName:     "rare vinyl",
		BasePrice:    decimal.NewFromInt(10),
		StartDelay:   time.Hour,
		LiveDuration: time.Hour,
	})
	require.NoError(t, err)

	_, err = f.svc.PlaceBid(context.Background(), bidder, auction.ID, decimal.NewFromInt(20))
	assert.ErrorIs(t, err, domain.ErrAuctionNotLive)
}

func TestConcurrentBidsSerializeOnOneAuction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.Zero)
	auctionID := f.createLiveAuction(t, seller, 10)

	var wg sync.WaitGroup
	for i := int64(11); i <= 20; i++ {
		amount := decimal.NewFromInt(i)
		bidder := f.store.addUser("bidder", decimal.NewFromInt(1000))
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.PlaceBid(ctx, bidder, auctionID, amount)
		}()
	}
	wg.Wait()

	stored := f.store.auction(auctionID)
	require.NotEmpty(t, stored.Bids)
	assert.True(t, stored.HighestBid().Amount.Equal(decimal.NewFromInt(20)))

	// Accepted bids must be strictly increasing in acceptance order.
	for i := 1; i < len(stored.Bids); i++ {
		assert.True(t, stored.Bids[i].Amount.GreaterThan(stored.Bids[i-1].Amount))
	}
}

func TestDeleteListing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.Zero)
	bidder := f.store.addUser("bidder", decimal.NewFromInt(100))
	auctionID := f.createLiveAuction(t, seller, 10)

	_, err := f.svc.PlaceBid(ctx, bidder, auctionID, decimal.NewFromInt(20))
	require.NoError(t, err)

	err = f.svc.DeleteListing(ctx, seller, auctionID)
	assert.ErrorIs(t, err, domain.ErrAuctionHasBids)
	require.NotNil(t, f.store.auction(auctionID))

	emptyID := f.createLiveAuction(t, seller, 10)
	require.NoError(t, f.svc.DeleteListing(ctx, seller, emptyID))
	assert.Nil(t, f.store.auction(emptyID))
}

func TestEditAndMakeLive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.Zero)

	auction, err := f.svc.CreateListing(ctx, seller, CreateListingInput{
		ItemName:     "oak desk",
		Description:  "solid oak",
		BasePrice:    decimal.NewFromInt(10),
		StartDelay:   time.Hour,
		LiveDuration: time.Hour,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.EditListing(ctx, seller, auction.ID, "solid oak, minor scratches"))
	assert.Equal(t, "solid oak, minor scratches", f.store.auction(auction.ID).Description)

	require.NoError(t, f.svc.MakeLive(ctx, seller, auction.ID))
	stored := f.store.auction(auction.ID)
	assert.Equal(t, time.Duration(0), stored.StartDelay)
	assert.Equal(t, domain.PhaseLive, stored.PhaseAt(f.clk.Now()))
}

func TestQueriesClassifyByPhase(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.Zero)
	bidder := f.store.addUser("bidder", decimal.NewFromInt(100))

	liveID := f.createLiveAuction(t, seller, 10)
	upcoming, err := f.svc.CreateListing(ctx, seller, CreateListingInput{
		ItemName:     "clock",
		BasePrice:    decimal.NewFromInt(5),
		StartDelay:   time.Hour,
		LiveDuration: time.Hour,
	})
	require.NoError(t, err)

	_, err = f.svc.PlaceBid(ctx, bidder, liveID, decimal.NewFromInt(25))
	require.NoError(t, err)

	live, err := f.svc.ListLive(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, liveID, live[0].AuctionID)
	assert.True(t, live[0].HighestBid.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, "bidder", live[0].HighestBidder)

	up, err := f.svc.ListUpcoming(ctx)
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, upcoming.ID, up[0].AuctionID)

	mine, err := f.svc.ListMine(ctx, seller)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	result, err := f.svc.AuctionResult(ctx, liveID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseLive, result.Phase)
	assert.Equal(t, "bidder", result.HighestBidder)

	_, err = f.svc.AuctionResult(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func TestEventsPublishedToFeed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.Zero)
	bidder := f.store.addUser("bidder", decimal.NewFromInt(100))
	auctionID := f.createLiveAuction(t, seller, 10)

	_, err := f.svc.PlaceBid(ctx, bidder, auctionID, decimal.NewFromInt(20))
	require.NoError(t, err)
	require.Equal(t, 1, f.feed.count())

	var bidEvent BidEvent
	require.NoError(t, json.Unmarshal(f.feed.last(), &bidEvent))
	assert.Equal(t, "bid_placed", bidEvent.Type)
	assert.Equal(t, auctionID, bidEvent.AuctionID)
	assert.True(t, bidEvent.Amount.Equal(decimal.NewFromInt(20)))

	_, err = f.svc.EndAuction(ctx, seller, auctionID)
	require.NoError(t, err)
	require.Equal(t, 2, f.feed.count())

	var settled SettlementEvent
	require.NoError(t, json.Unmarshal(f.feed.last(), &settled))
	assert.Equal(t, "auction_ended", settled.Type)
	require.NotNil(t, settled.WinnerID)
	assert.Equal(t, bidder, *settled.WinnerID)
}

func TestSweeperSettlesExpiredAuctions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := f.store.addUser("seller", decimal.Zero)
	bidder := f.store.addUser("bidder", decimal.NewFromInt(100))
	auctionID := f.createLiveAuction(t, seller, 10)

	_, err := f.svc.PlaceBid(ctx, bidder, auctionID, decimal.NewFromInt(40))
	require.NoError(t, err)

	// Not expired yet: the sweep must leave it alone.
	f.svc.sweepExpired(ctx)
	assert.False(t, f.store.auction(auctionID).Finalized)

	f.clk.Advance(2 * time.Hour)
	f.svc.sweepExpired(ctx)

	stored := f.store.auction(auctionID)
	assert.True(t, stored.Finalized)
	assert.True(t, f.store.balance(seller).Equal(decimal.NewFromInt(40)))
	assert.True(t, f.store.balance(bidder).Equal(decimal.NewFromInt(60)))

	// Sweeping again is harmless.
	f.svc.sweepExpired(ctx)
	assert.True(t, f.store.balance(seller).Equal(decimal.NewFromInt(40)))
}
