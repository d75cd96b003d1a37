package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MakeLive activates an upcoming auction immediately: the remaining start
// delay is dropped and the live window starts now.
func (s *Service) MakeLive(ctx context.Context, callerID, auctionID uuid.UUID) error {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return fmt.Errorf("make live: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	auction, err := s.auctions.GetForUpdate(ctx, tx, auctionID)
	if err != nil {
		return fmt.Errorf("make live: failed to load auction %s: %w", auctionID, err)
	}
	if err := auction.MakeLive(callerID, s.clk.Now()); err != nil {
		return err
	}
	if err := s.auctions.Save(ctx, tx, auction); err != nil {
		return fmt.Errorf("make live: failed to save auction %s: %w", auctionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("make live: failed to commit transaction: %w", err)
	}

	log.Info("auction made live",
		zap.String("auctionID", auctionID.String()),
		zap.String("sellerID", callerID.String()),
	)
	return nil
}
