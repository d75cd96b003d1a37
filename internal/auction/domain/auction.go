package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Auction is the aggregate root: the listing itself plus every bid placed on
// it. All bid acceptance and finalization on one auction is serialized
// against each other, so the aggregate is always loaded, mutated and
// committed as a single unit.
type Auction struct {
	ID           uuid.UUID
	SellerID     uuid.UUID
	ItemName     string
	Description  string
	ImageURL     string
	BasePrice    decimal.Decimal
	PostedTime   time.Time
	StartDelay   time.Duration
	LiveDuration time.Duration
	Finalized    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Bids []*Bid
}

// NewAuction creates a listing. Creation sets PostedTime immediately, so an
// auction is UPCOMING from the moment it exists; there is no draft stage.
func NewAuction(id, sellerID uuid.UUID, itemName, description, imageURL string, basePrice decimal.Decimal, startDelay, liveDuration time.Duration, now time.Time) (*Auction, error) {
	if strings.TrimSpace(itemName) == "" {
		return nil, ErrInvalidListing
	}
	if !basePrice.IsPositive() {
		return nil, ErrInvalidListing
	}
	if startDelay < 0 || liveDuration <= 0 {
		return nil, ErrInvalidListing
	}
	return &Auction{
		ID:           id,
		SellerID:     sellerID,
		ItemName:     itemName,
		Description:  description,
		ImageURL:     imageURL,
		BasePrice:    basePrice,
		PostedTime:   now,
		StartDelay:   startDelay,
		LiveDuration: liveDuration,
		CreatedAt:    now,
		UpdatedAt:    now,
		Bids:         []*Bid{},
	}, nil
}

func (a *Auction) liveStart() time.Time {
	return a.PostedTime.Add(a.StartDelay)
}

func (a *Auction) liveEnd() time.Time {
	return a.liveStart().Add(a.LiveDuration)
}

// PhaseAt classifies the auction's phase at the given instant. Pure and
// deterministic: same auction, same now, same phase.
func (a *Auction) PhaseAt(now time.Time) Phase {
	if a.Finalized {
		return PhaseEnded
	}
	switch {
	case now.Before(a.liveStart()):
		return PhaseUpcoming
	case now.Before(a.liveEnd()):
		return PhaseLive
	default:
		return PhaseEnded
	}
}

// OwnedBy reports whether the caller is the listing seller.
func (a *Auction) OwnedBy(callerID uuid.UUID) bool {
	return a.SellerID == callerID
}

// HighestBid returns the current winning bid: maximum amount, ties broken by
// earliest submission time. Nil when no bids have been accepted.
func (a *Auction) HighestBid() *Bid {
	var winning *Bid
	for _, b := range a.Bids {
		if winning == nil ||
			b.Amount.GreaterThan(winning.Amount) ||
			(b.Amount.Equal(winning.Amount) && b.PlacedAt.Before(winning.PlacedAt)) {
			winning = b
		}
	}
	return winning
}

// EditDescription updates the listing description. Only the description is
// editable, only by the owner, and only before the auction ends.
func (a *Auction) EditDescription(callerID uuid.UUID, description string, now time.Time) error {
	if !a.OwnedBy(callerID) {
		return ErrNotOwner
	}
	if !CanPerform(ActionEdit, a.PhaseAt(now)) {
		return ErrAuctionEnded
	}
	a.Description = description
	a.UpdatedAt = now
	return nil
}

// MakeLive activates an upcoming auction immediately: the start delay is
// dropped and the live window is re-anchored at now.
func (a *Auction) MakeLive(callerID uuid.UUID, now time.Time) error {
	if !a.OwnedBy(callerID) {
		return ErrNotOwner
	}
	if !CanPerform(ActionActivate, a.PhaseAt(now)) {
		return ErrAuctionNotUpcoming
	}
	a.PostedTime = now
	a.StartDelay = 0
	a.UpdatedAt = now
	return nil
}

// PlaceBid validates and accepts a bid. Rules are checked in a fixed order
// and the first failing rule wins, so every rejection names one cause.
// The caller must hold the aggregate lock: acceptance reads the current
// highest bid, and that read must be atomic with the append.
func (a *Auction) PlaceBid(bidID, bidderID uuid.UUID, amount, bidderBalance decimal.Decimal, now time.Time) (*Bid, error) {
	if err := ValidateBid(a, bidderID, amount, bidderBalance, now); err != nil {
		return nil, err
	}
	bid := NewBid(bidID, a.ID, bidderID, amount, now)
	a.Bids = append(a.Bids, bid)
	a.UpdatedAt = now
	return bid, nil
}

// EnsureDeletable checks the delete rules: owner only, never after the
// auction ended, and never once a bid exists.
func (a *Auction) EnsureDeletable(callerID uuid.UUID, now time.Time) error {
	if !a.OwnedBy(callerID) {
		return ErrNotOwner
	}
	if !CanPerform(ActionDelete, a.PhaseAt(now)) {
		return ErrAuctionEnded
	}
	if len(a.Bids) > 0 {
		return ErrAuctionHasBids
	}
	return nil
}

// Finalize closes the auction and reports what settlement is owed. It never
// moves funds itself; the caller commits the returned settlement and this
// mutation in one atomic unit. Finalization is gated on the finalized flag,
// not the clock, so a second finalize always fails with ErrAlreadyFinalized
// and funds move exactly once.
func (a *Auction) Finalize(now time.Time) (*Settlement, error) {
	if a.Finalized {
		return nil, ErrAlreadyFinalized
	}
	a.Finalized = true
	a.LiveDuration = 0
	a.UpdatedAt = now

	winner := a.HighestBid()
	if winner == nil {
		return &Settlement{AuctionID: a.ID, Amount: decimal.Zero}, nil
	}
	return &Settlement{AuctionID: a.ID, Winner: winner, Amount: winner.Amount}, nil
}
