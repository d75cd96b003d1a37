package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerdown/auctionhouse/internal/auction/domain"
	"github.com/hammerdown/auctionhouse/internal/shared/db"
)

const auctionColumns = `id, seller_id, item_name, description, image_url, base_price,
       posted_time, start_delay_seconds, live_duration_seconds, finalized, created_at, updated_at`

// AuctionRepository implements domain.AuctionRepository on PostgreSQL. The
// auction row is the aggregate's lock: GetForUpdate takes it FOR UPDATE so
// every mutation on the same auction serializes on it.
type AuctionRepository struct {
	pool *pgxpool.Pool
}

func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

func (r *AuctionRepository) Create(ctx context.Context, tx db.Tx, a *domain.Auction) error {
	ptx, err := db.UnwrapPgx(tx)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO auctions (` + auctionColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err = ptx.Exec(ctx, query,
		a.ID, a.SellerID, a.ItemName, a.Description, a.ImageURL, a.BasePrice,
		a.PostedTime, int64(a.StartDelay.Seconds()), int64(a.LiveDuration.Seconds()),
		a.Finalized, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	auction, err := scanAuction(row)
	if err != nil {
		return nil, err
	}
	auction.Bids, err = r.loadBids(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	return auction, nil
}

func (r *AuctionRepository) GetForUpdate(ctx context.Context, tx db.Tx, id uuid.UUID) (*domain.Auction, error) {
	ptx, err := db.UnwrapPgx(tx)
	if err != nil {
		return nil, err
	}
	row := ptx.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1 FOR UPDATE`, id)
	auction, err := scanAuction(row)
	if err != nil {
		return nil, err
	}
	auction.Bids, err = r.loadBids(ctx, ptx, id)
	if err != nil {
		return nil, err
	}
	return auction, nil
}

func (r *AuctionRepository) Save(ctx context.Context, tx db.Tx, a *domain.Auction) error {
	ptx, err := db.UnwrapPgx(tx)
	if err != nil {
		return err
	}
	query := `
        UPDATE auctions
        SET description = $2,
            posted_time = $3,
            start_delay_seconds = $4,
            live_duration_seconds = $5,
            finalized = $6,
            updated_at = $7
        WHERE id = $1
    `
	tag, err := ptx.Exec(ctx, query,
		a.ID, a.Description, a.PostedTime,
		int64(a.StartDelay.Seconds()), int64(a.LiveDuration.Seconds()),
		a.Finalized, a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}

func (r *AuctionRepository) Delete(ctx context.Context, tx db.Tx, id uuid.UUID) error {
	ptx, err := db.UnwrapPgx(tx)
	if err != nil {
		return err
	}
	tag, err := ptx.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}

func (r *AuctionRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Auction, error) {
	return r.list(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
}

func (r *AuctionRepository) ListOpen(ctx context.Context) ([]*domain.Auction, error) {
	return r.list(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE NOT finalized ORDER BY created_at DESC`)
}

func (r *AuctionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Auction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, auction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range auctions {
		a.Bids, err = r.loadBids(ctx, r.pool, a.ID)
		if err != nil {
			return nil, err
		}
	}
	return auctions, nil
}

// queryer is the slice of pgx both the pool and a transaction provide.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *AuctionRepository) loadBids(ctx context.Context, q queryer, auctionID uuid.UUID) ([]*domain.Bid, error) {
	rows, err := q.Query(ctx, `
        SELECT id, auction_id, bidder_id, amount, placed_at
        FROM bids
        WHERE auction_id = $1
        ORDER BY placed_at ASC
    `, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := []*domain.Bid{}
	for rows.Next() {
		bid := &domain.Bid{}
		if err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.BidderID, &bid.Amount, &bid.PlacedAt); err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	a := &domain.Auction{}
	var startDelaySec, liveDurationSec int64
	err := row.Scan(
		&a.ID, &a.SellerID, &a.ItemName, &a.Description, &a.ImageURL, &a.BasePrice,
		&a.PostedTime, &startDelaySec, &liveDurationSec, &a.Finalized, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("scan auction: %w", err)
	}
	a.StartDelay = time.Duration(startDelaySec) * time.Second
	a.LiveDuration = time.Duration(liveDurationSec) * time.Second
	return a, nil
}
