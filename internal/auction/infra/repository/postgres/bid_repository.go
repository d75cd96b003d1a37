package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerdown/auctionhouse/internal/auction/domain"
	"github.com/hammerdown/auctionhouse/internal/shared/db"
)

// BidRepository implements domain.BidRepository on PostgreSQL. Inserts run
// inside the transaction that holds the auction row lock, so the bid history
// stays strictly increasing.
type BidRepository struct {
	pool *pgxpool.Pool
}

func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

func (r *BidRepository) Insert(ctx context.Context, tx db.Tx, bid *domain.Bid) error {
	ptx, err := db.UnwrapPgx(tx)
	if err != nil {
		return err
	}
	_, err = ptx.Exec(ctx, `
        INSERT INTO bids (id, auction_id, bidder_id, amount, placed_at)
        VALUES ($1, $2, $3, $4, $5)
    `, bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, bid.PlacedAt)
	return err
}
