package session

import (
	"context"
	"time"

	"accountsvc/internal/domain"
)

// UserRepositoryInterface covers only the methods the session service uses.
type UserRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

// RevocationStoreInterface is the existence check and insert on the
// revocation list. The store's unique jti constraint is what makes rotation
// race-safe.
type RevocationStoreInterface interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, userID int64, jti string, expiresAt time.Time, reason domain.RevocationReason) (*domain.RevocationEntry, error)
}
