package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EditListing replaces the listing description. Only the owner may edit, and
// only while the auction is upcoming or live.
func (s *Service) EditListing(ctx context.Context, callerID, auctionID uuid.UUID, description string) error {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return fmt.Errorf("edit listing: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	auction, err := s.auctions.GetForUpdate(ctx, tx, auctionID)
	if err != nil {
		return fmt.Errorf("edit listing: failed to load auction %s: %w", auctionID, err)
	}
	if err := auction.EditDescription(callerID, description, s.clk.Now()); err != nil {
		return err
	}
	if err := s.auctions.Save(ctx, tx, auction); err != nil {
		return fmt.Errorf("edit listing: failed to save auction %s: %w", auctionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("edit listing: failed to commit transaction: %w", err)
	}
	return nil
}
