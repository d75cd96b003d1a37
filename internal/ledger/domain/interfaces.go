package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/hammerdown/auctionhouse/internal/shared/db"
)

// AccountRepository stores balances. GetForUpdate locks the user's row for
// the lifetime of tx so concurrent debits on one user serialize; Get is the
// unlocked read used by queries and bid validation.
type AccountRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Account, error)
	GetForUpdate(ctx context.Context, tx db.Tx, userID uuid.UUID) (*Account, error)
	SaveBalance(ctx context.Context, tx db.Tx, account *Account) error
}
