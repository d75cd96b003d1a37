package application

import (
	"github.com/hammerdown/auctionhouse/internal/auction/domain"
	ledgerapp "github.com/hammerdown/auctionhouse/internal/ledger/application"
	ledgerdomain "github.com/hammerdown/auctionhouse/internal/ledger/domain"
	"github.com/hammerdown/auctionhouse/internal/shared/clock"
	"github.com/hammerdown/auctionhouse/internal/shared/db"
	"github.com/hammerdown/auctionhouse/internal/shared/logger"
	userdomain "github.com/hammerdown/auctionhouse/internal/user/domain"
)

var log = logger.GetLogger()

// Broadcaster pushes auction events to subscribers of that auction's live
// feed. The websocket hub satisfies it; tests use NoopBroadcaster.
type Broadcaster interface {
	BroadcastToAuction(auctionID string, data []byte)
}

// NoopBroadcaster drops every event.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastToAuction(string, []byte) {}

// Service orchestrates the auction lifecycle: create, edit, activate, bid,
// end and delete, plus the read queries. Every mutating operation loads the
// aggregate under its row lock, classifies the phase, authorizes the caller,
// applies the domain rules and commits in one transaction.
type Service struct {
	txm      db.TxManager
	auctions domain.AuctionRepository
	bids     domain.BidRepository
	accounts ledgerdomain.AccountRepository
	users    userdomain.UserRepository
	ledger   *ledgerapp.LedgerService
	clk      clock.Clock
	events   Broadcaster
}

func NewService(
	txm db.TxManager,
	auctions domain.AuctionRepository,
	bids domain.BidRepository,
	accounts ledgerdomain.AccountRepository,
	users userdomain.UserRepository,
	ledger *ledgerapp.LedgerService,
	clk clock.Clock,
	events Broadcaster,
) *Service {
	if events == nil {
		events = NoopBroadcaster{}
	}
	return &Service{
		txm:      txm,
		auctions: auctions,
		bids:     bids,
		accounts: accounts,
		users:    users,
		ledger:   ledger,
		clk:      clk,
		events:   events,
	}
}
