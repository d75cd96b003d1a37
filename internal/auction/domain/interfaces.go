package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/hammerdown/auctionhouse/internal/shared/db"
)

// AuctionRepository stores auction aggregates. GetForUpdate locks the
// auction row for the lifetime of tx, which is what serializes concurrent
// operations on the same auction.
type AuctionRepository interface {
	Create(ctx context.Context, tx db.Tx, a *Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	GetForUpdate(ctx context.Context, tx db.Tx, id uuid.UUID) (*Auction, error)
	Save(ctx context.Context, tx db.Tx, a *Auction) error
	Delete(ctx context.Context, tx db.Tx, id uuid.UUID) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Auction, error)
	ListOpen(ctx context.Context) ([]*Auction, error)
}

// BidRepository appends accepted bids. Inserts always run inside the same
// transaction that holds the auction row lock.
type BidRepository interface {
	Insert(ctx context.Context, tx db.Tx, bid *Bid) error
}
