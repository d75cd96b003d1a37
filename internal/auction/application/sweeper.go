package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hammerdown/auctionhouse/internal/auction/domain"
)

// RunExpirySweeper settles auctions whose live window elapsed without a
// caller-triggered end. It blocks until ctx is cancelled. Phase transitions
// never depend on it; it only triggers settlement that a seller could have
// triggered themselves, through the identical code path, so a concurrent
// caller-triggered end is harmless (one of the two observes
// ErrAlreadyFinalized).
func (s *Service) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("expiry sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			log.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweepExpired(ctx)
		}
	}
}

func (s *Service) sweepExpired(ctx context.Context) {
	open, err := s.auctions.ListOpen(ctx)
	if err != nil {
		log.Error("sweep: failed to list open auctions", zap.Error(err))
		return
	}
	now := s.clk.Now()
	for _, a := range open {
		if a.PhaseAt(now) != domain.PhaseEnded {
			continue
		}
		if _, err := s.finalize(ctx, a.ID, nil); err != nil {
			switch {
			case errors.Is(err, domain.ErrAlreadyFinalized):
				// Lost the race to a caller-triggered end; nothing to do.
			case errors.Is(err, domain.ErrWinnerCannotPay):
				log.Warn("sweep: auction left open, winner cannot pay",
					zap.String("auctionID", a.ID.String()))
			default:
				log.Error("sweep: failed to settle expired auction",
					zap.String("auctionID", a.ID.String()), zap.Error(err))
			}
		}
	}
}
