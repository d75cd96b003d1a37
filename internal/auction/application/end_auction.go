package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hammerdown/auctionhouse/internal/auction/domain"
	ledgerdomain "github.com/hammerdown/auctionhouse/internal/ledger/domain"
)

// SettlementEvent is pushed to the auction's live feed when it closes.
type SettlementEvent struct {
	Type      string          `json:"type"`
	AuctionID uuid.UUID       `json:"auction_id"`
	WinnerID  *uuid.UUID      `json:"winner_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// EndAuction finalizes the auction on the seller's request and settles it.
func (s *Service) EndAuction(ctx context.Context, callerID, auctionID uuid.UUID) (*domain.Settlement, error) {
	return s.finalize(ctx, auctionID, &callerID)
}

// finalize is the single settlement path, shared by caller-triggered ends
// and the expiry sweeper (which passes a nil caller and skips the ownership
// check). The winning-bid lookup, the affordability re-check, the funds
// transfer and the finalized flag all commit as one transaction; when the
// winner can no longer pay, everything rolls back and the auction stays
// open for a retry.
func (s *Service) finalize(ctx context.Context, auctionID uuid.UUID, callerID *uuid.UUID) (*domain.Settlement, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("end auction: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	auction, err := s.auctions.GetForUpdate(ctx, tx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("end auction: failed to load auction %s: %w", auctionID, err)
	}
	if callerID != nil && !auction.OwnedBy(*callerID) {
		return nil, domain.ErrNotOwner
	}

	settlement, err := auction.Finalize(s.clk.Now())
	if err != nil {
		return nil, err
	}

	if !settlement.NoBids() {
		err := s.ledger.Transfer(ctx, tx, settlement.Winner.BidderID, auction.SellerID, settlement.Amount)
		if errors.Is(err, ledgerdomain.ErrInsufficientFunds) {
			// Policy: reject and leave the auction open. No cascade to the
			// next-highest bidder.
			log.Warn("settlement aborted, winner cannot pay",
				zap.String("auctionID", auctionID.String()),
				zap.String("winnerID", settlement.Winner.BidderID.String()),
				zap.String("amount", settlement.Amount.String()),
			)
			return nil, domain.ErrWinnerCannotPay
		}
		if err != nil {
			return nil, fmt.Errorf("end auction: failed to transfer funds for auction %s: %w", auctionID, err)
		}
	}

	if err := s.auctions.Save(ctx, tx, auction); err != nil {
		return nil, fmt.Errorf("end auction: failed to save auction %s: %w", auctionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("end auction: failed to commit transaction: %w", err)
	}

	event := SettlementEvent{Type: "auction_ended", AuctionID: auctionID, Amount: settlement.Amount}
	if !settlement.NoBids() {
		event.WinnerID = &settlement.Winner.BidderID
		log.Info("auction settled",
			zap.String("auctionID", auctionID.String()),
			zap.String("winnerID", settlement.Winner.BidderID.String()),
			zap.String("amount", settlement.Amount.String()),
		)
	} else {
		log.Info("auction closed without bids", zap.String("auctionID", auctionID.String()))
	}
	s.publish(auctionID, event)
	return settlement, nil
}
