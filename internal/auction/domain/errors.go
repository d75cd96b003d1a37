package domain

import "errors"

// Lookup and authorization errors.
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrNotOwner        = errors.New("caller does not own this auction")
)

// Business rule errors. Every rejected operation maps to exactly one of
// these so callers and tests can assert on the specific rule violated.
var (
	ErrInvalidListing     = errors.New("invalid listing")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrSelfBid            = errors.New("sellers cannot bid on their own auction")
	ErrAuctionNotLive     = errors.New("auction is not live")
	ErrAuctionNotUpcoming = errors.New("auction is no longer upcoming")
	ErrBidTooLow          = errors.New("bid amount is too low")
	ErrInsufficientFunds  = errors.New("insufficient funds to cover the bid")
	ErrAlreadyFinalized   = errors.New("auction is already finalized")
	ErrAuctionEnded       = errors.New("auction has ended")
	ErrAuctionHasBids     = errors.New("auction with bids cannot be deleted")
	ErrWinnerCannotPay    = errors.New("winning bidder can no longer cover the winning bid")
)
