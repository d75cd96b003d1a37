package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeleteListing removes a listing. Legal only for the owner, only before the
// auction ends, and only while no bids exist.
func (s *Service) DeleteListing(ctx context.Context, callerID, auctionID uuid.UUID) error {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete listing: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	auction, err := s.auctions.GetForUpdate(ctx, tx, auctionID)
	if err != nil {
		return fmt.Errorf("delete listing: failed to load auction %s: %w", auctionID, err)
	}
	if err := auction.EnsureDeletable(callerID, s.clk.Now()); err != nil {
		return err
	}
	if err := s.auctions.Delete(ctx, tx, auctionID); err != nil {
		return fmt.Errorf("delete listing: failed to delete auction %s: %w", auctionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete listing: failed to commit transaction: %w", err)
	}

	log.Info("listing deleted",
		zap.String("auctionID", auctionID.String()),
		zap.String("sellerID", callerID.String()),
	)
	return nil
}
