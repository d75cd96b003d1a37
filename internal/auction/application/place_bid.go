package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hammerdown/auctionhouse/internal/auction/domain"
)

// BidEvent is pushed to the auction's live feed when a bid is accepted.
type BidEvent struct {
	Type      string          `json:"type"`
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// PlaceBid validates and records a bid. The aggregate is loaded under its
// row lock, so the validation against the current highest bid and the insert
// of the new bid are one atomic unit: two bidders racing on the same auction
// cannot both observe the same "highest" bid.
func (s *Service) PlaceBid(ctx context.Context, bidderID, auctionID uuid.UUID, amount decimal.Decimal) (*domain.Bid, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("place bid: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	auction, err := s.auctions.GetForUpdate(ctx, tx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("place bid: failed to load auction %s: %w", auctionID, err)
	}

	// Affordability is checked against the balance at bid time. The funds
	// are not reserved; settlement re-checks before any money moves.
	account, err := s.accounts.Get(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("place bid: failed to load bidder account %s: %w", bidderID, err)
	}

	bid, err := auction.PlaceBid(uuid.New(), bidderID, amount, account.Balance, s.clk.Now())
	if err != nil {
		log.Warn("bid rejected",
			zap.String("auctionID", auctionID.String()),
			zap.String("bidderID", bidderID.String()),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.bids.Insert(ctx, tx, bid); err != nil {
		return nil, fmt.Errorf("place bid: failed to save bid for auction %s: %w", auctionID, err)
	}
	if err := s.auctions.Save(ctx, tx, auction); err != nil {
		return nil, fmt.Errorf("place bid: failed to save auction %s: %w", auctionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("place bid: failed to commit transaction: %w", err)
	}

	log.Info("bid placed",
		zap.String("auctionID", auctionID.String()),
		zap.String("bidID", bid.ID.String()),
		zap.String("bidderID", bidderID.String()),
		zap.String("amount", amount.String()),
	)
	s.publish(auction.ID, BidEvent{
		Type:      "bid_placed",
		AuctionID: auction.ID,
		BidderID:  bidderID,
		Amount:    amount,
		PlacedAt:  bid.PlacedAt,
	})
	return bid, nil
}

func (s *Service) publish(auctionID uuid.UUID, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal auction event", zap.Error(err))
		return
	}
	s.events.BroadcastToAuction(auctionID.String(), data)
}
