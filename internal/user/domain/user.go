package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hammerdown/auctionhouse/internal/shared/db"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// User is a registered marketplace participant. The cash balance lives on
// the same storage row but is owned by the ledger module.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository stores registered users.
type UserRepository interface {
	Create(ctx context.Context, tx db.Tx, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}
