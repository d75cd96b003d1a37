package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hammerdown/auctionhouse/internal/shared/clock"
	"github.com/hammerdown/auctionhouse/internal/shared/db"
	"github.com/hammerdown/auctionhouse/internal/shared/logger"
	"github.com/hammerdown/auctionhouse/internal/user/domain"
)

var log = logger.GetLogger()

const (
	maxUsernameLen = 50
	maxPasswordLen = 100
)

// AuthService handles registration, login and bearer-token verification.
// Tokens are the opaque credential the rest of the system resolves to a
// trusted caller identity.
type AuthService struct {
	txm    db.TxManager
	users  domain.UserRepository
	secret []byte
	clk    clock.Clock
}

func NewAuthService(txm db.TxManager, users domain.UserRepository, secret string, clk clock.Clock) *AuthService {
	return &AuthService{
		txm:    txm,
		users:  users,
		secret: []byte(secret),
		clk:    clk,
	}
}

// Register creates a user with a bcrypt-hashed password and a zero balance.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if len(username) > maxUsernameLen || len(password) > maxPasswordLen {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to hash password: %w", err)
	}

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("auth: failed to check existing user: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clk.Now(),
	}
	if err := s.users.Create(ctx, tx, user); err != nil {
		return nil, fmt.Errorf("auth: failed to create user: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("auth: failed to commit transaction: %w", err)
	}

	log.Info("user registered", zap.String("userID", user.ID.String()), zap.String("username", username))
	return user, nil
}

// Login verifies the credentials and issues a signed JWT valid for 24 hours.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth: failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	now := s.clk.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}
	return signed, nil
}

// ResolveCaller verifies a bearer token and returns the trusted caller
// identity embedded in it.
func (s *AuthService) ResolveCaller(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, domain.ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, domain.ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, domain.ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}
