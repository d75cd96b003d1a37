package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hammerdown/auctionhouse/internal/auction/domain"
)

// CreateListingInput carries the seller-provided listing fields.
type CreateListingInput struct {
	ItemName     string
	Description  string
	ImageURL     string
	BasePrice    decimal.Decimal
	StartDelay   time.Duration
	LiveDuration time.Duration
}

// CreateListing posts a new listing for the caller. The auction is UPCOMING
// from this moment; its live window is anchored at the creation time.
func (s *Service) CreateListing(ctx context.Context, sellerID uuid.UUID, in CreateListingInput) (*domain.Auction, error) {
	auction, err := domain.NewAuction(
		uuid.New(), sellerID,
		in.ItemName, in.Description, in.ImageURL,
		in.BasePrice, in.StartDelay, in.LiveDuration,
		s.clk.Now(),
	)
	if err != nil {
		return nil, err
	}

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create listing: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.auctions.Create(ctx, tx, auction); err != nil {
		return nil, fmt.Errorf("create listing: failed to save auction: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create listing: failed to commit transaction: %w", err)
	}

	log.Info("listing created",
		zap.String("auctionID", auction.ID.String()),
		zap.String("sellerID", sellerID.String()),
		zap.String("basePrice", auction.BasePrice.String()),
	)
	return auction, nil
}
