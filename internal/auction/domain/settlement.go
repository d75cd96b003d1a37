package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement describes what a finalized auction owes: who won and how much
// moves from the winner to the seller. Winner is nil when the auction closed
// without bids, in which case no funds move at all.
type Settlement struct {
	AuctionID uuid.UUID
	Winner    *Bid
	Amount    decimal.Decimal
}

// NoBids reports whether the auction closed without a single bid.
func (s *Settlement) NoBids() bool {
	return s.Winner == nil
}
