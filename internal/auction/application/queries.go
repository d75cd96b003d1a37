package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hammerdown/auctionhouse/internal/auction/domain"
	userdomain "github.com/hammerdown/auctionhouse/internal/user/domain"
)

// AuctionView is the read model for listing pages and auction results. The
// phase is recomputed from the stored timestamps at query time; there is no
// cached phase to trust.
type AuctionView struct {
	AuctionID     uuid.UUID
	SellerID      uuid.UUID
	ItemName      string
	Description   string
	ImageURL      string
	BasePrice     decimal.Decimal
	PostedTime    time.Time
	StartDelay    time.Duration
	LiveDuration  time.Duration
	Phase         domain.Phase
	HighestBid    decimal.Decimal
	HighestBidder string
}

// ListLive returns every auction currently in its live window.
func (s *Service) ListLive(ctx context.Context) ([]AuctionView, error) {
	return s.listOpenByPhase(ctx, domain.PhaseLive)
}

// ListUpcoming returns every auction whose live window has not started.
func (s *Service) ListUpcoming(ctx context.Context) ([]AuctionView, error) {
	return s.listOpenByPhase(ctx, domain.PhaseUpcoming)
}

func (s *Service) listOpenByPhase(ctx context.Context, phase domain.Phase) ([]AuctionView, error) {
	open, err := s.auctions.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	now := s.clk.Now()
	views := make([]AuctionView, 0, len(open))
	for _, a := range open {
		if a.PhaseAt(now) != phase {
			continue
		}
		view, err := s.buildView(ctx, a, now)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ListMine returns the caller's own listings in every phase.
func (s *Service) ListMine(ctx context.Context, sellerID uuid.UUID) ([]AuctionView, error) {
	mine, err := s.auctions.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list my listings: %w", err)
	}
	now := s.clk.Now()
	views := make([]AuctionView, 0, len(mine))
	for _, a := range mine {
		view, err := s.buildView(ctx, a, now)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// AuctionResult returns one auction's state including its current winning
// bid and bidder.
func (s *Service) AuctionResult(ctx context.Context, auctionID uuid.UUID) (*AuctionView, error) {
	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	view, err := s.buildView(ctx, auction, s.clk.Now())
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *Service) buildView(ctx context.Context, a *domain.Auction, now time.Time) (AuctionView, error) {
	view := AuctionView{
		AuctionID:    a.ID,
		SellerID:     a.SellerID,
		ItemName:     a.ItemName,
		Description:  a.Description,
		ImageURL:     a.ImageURL,
		BasePrice:    a.BasePrice,
		PostedTime:   a.PostedTime,
		StartDelay:   a.StartDelay,
		LiveDuration: a.LiveDuration,
		Phase:        a.PhaseAt(now),
		HighestBid:   decimal.Zero,
	}
	if highest := a.HighestBid(); highest != nil {
		view.HighestBid = highest.Amount
		bidder, err := s.users.GetByID(ctx, highest.BidderID)
		if err != nil {
			if !errors.Is(err, userdomain.ErrUserNotFound) {
				return AuctionView{}, fmt.Errorf("resolve highest bidder: %w", err)
			}
		} else {
			view.HighestBidder = bidder.Username
		}
	}
	return view, nil
}
