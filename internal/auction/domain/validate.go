package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidateBid decides whether a proposed bid is acceptable. Pure decision
// logic; rules run in a fixed order and the first failure wins:
//
//  1. the seller cannot bid on their own auction
//  2. the auction must be live
//  3. the amount must exceed both the base price and the current highest bid
//  4. the bidder must be able to cover the amount right now
//
// The funds check gives bidders immediate feedback and prevents obviously
// unsettleable winning bids, but the balance is not reserved: settlement
// re-checks affordability because the bidder may spend elsewhere in between.
func ValidateBid(a *Auction, bidderID uuid.UUID, amount, bidderBalance decimal.Decimal, now time.Time) error {
	if bidderID == a.SellerID {
		return ErrSelfBid
	}
	if !CanPerform(ActionBid, a.PhaseAt(now)) {
		return ErrAuctionNotLive
	}
	floor := a.BasePrice
	if highest := a.HighestBid(); highest != nil && highest.Amount.GreaterThan(floor) {
		floor = highest.Amount
	}
	if amount.LessThanOrEqual(floor) {
		return ErrBidTooLow
	}
	if amount.GreaterThan(bidderBalance) {
		return ErrInsufficientFunds
	}
	return nil
}
