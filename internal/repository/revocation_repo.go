package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"accountsvc/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateRevocation is returned when a jti is already present in the
// store. Callers recover locally: logout treats it as already-done, refresh
// treats it as a lost rotation race.
var ErrDuplicateRevocation = errors.New("token already revoked")

// ErrInvalidReason rejects reasons outside the closed enum before they reach
// the database.
var ErrInvalidReason = errors.New("invalid revocation reason")

// RevocationRepository provides DB access for the token revocation list.
//
// The unique index on jti is the sole concurrency-correctness mechanism for
// refresh rotation: two concurrent rotations of the same token race to
// insert, exactly one wins.
type RevocationRepository struct {
	db *gorm.DB
}

func NewRevocationRepository(db *gorm.DB) *RevocationRepository {
	return &RevocationRepository{db: db}
}

// IsRevoked reports whether the jti exists in the store. Indexed lookup.
func (r *RevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RevocationEntry{}).
		Where("jti = ?", jti).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Revoke inserts one entry. A pre-existing jti fails with
// ErrDuplicateRevocation; it never overwrites.
func (r *RevocationRepository) Revoke(ctx context.Context, userID int64, jti string, expiresAt time.Time, reason domain.RevocationReason) (*domain.RevocationEntry, error) {
	if !reason.Valid() {
		return nil, ErrInvalidReason
	}

	entry := &domain.RevocationEntry{
		UserID:    userID,
		JTI:       jti,
		ExpiresAt: expiresAt,
		Reason:    reason,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateRevocation
		}
		return nil, err
	}
	return entry, nil
}

// SweepExpired deletes every entry whose underlying token has already
// expired on its own. Safe to run concurrently with inserts: writers only
// touch live jtis, the sweep only dead ones.
func (r *RevocationRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.RevocationEntry{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// CountExpired reports how many entries SweepExpired would delete.
func (r *RevocationRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RevocationEntry{}).
		Where("expires_at <= ?", now).
		Count(&count).Error
	return count, err
}

// Count reports the total number of entries in the store.
func (r *RevocationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RevocationEntry{}).Count(&count).Error
	return count, err
}

// ListByUser returns a user's entries, newest first; for auditing.
func (r *RevocationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.RevocationEntry, error) {
	var entries []domain.RevocationEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("revoked_at DESC").
		Find(&entries).Error
	return entries, err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// modernc sqlite driver, used in tests
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
