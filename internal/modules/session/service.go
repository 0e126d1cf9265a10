package session

import (
	"context"
	"errors"
	"time"

	"accountsvc/internal/domain"
	"accountsvc/internal/pkg/token"
	"accountsvc/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service orchestrates the token lifecycle: login issues a pair, refresh
// rotates it, logout consumes it. A rotated or logged-out refresh token is
// terminal; re-presenting it always fails.
type Service struct {
	users       UserRepositoryInterface
	revocations RevocationStoreInterface
	codec       *token.Service
	accessTTL   time.Duration
	refreshTTL  time.Duration
	log         *logrus.Logger
}

type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// LogoutResult reports the already-revoked case as data, not as an error:
// repeated logout is an expected, benign outcome.
type LogoutResult struct {
	AlreadyRevoked bool
}

func NewService(
	users UserRepositoryInterface,
	revocations RevocationStoreInterface,
	codec *token.Service,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	log *logrus.Logger,
) *Service {
	return &Service{
		users:       users,
		revocations: revocations,
		codec:       codec,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		log:         log,
	}
}

// Login verifies credentials and issues a fresh access+refresh pair. New
// jtis are inherently not revoked, so the revocation store is not consulted.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a live refresh token for a new pair and consumes the old
// one. The revocation write completes before the new pair is returned; there
// is no fire-and-forget here.
func (s *Service) Refresh(ctx context.Context, refreshRaw string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshRaw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != token.KindRefresh {
		return nil, ErrInvalidToken
	}
	userID, err := claims.SubjectID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	// Replay-defense boundary: a consumed token never issues another pair.
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		s.log.WithFields(logrus.Fields{
			"jti":     claims.ID,
			"user_id": userID,
		}).Warn("replay of rotated refresh token rejected")
		return nil, ErrTokenRevoked
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	pair, err := s.issuePair(userID)
	if err != nil {
		return nil, err
	}

	// Consume the presented token, bounded by its own exp claim. Losing the
	// insert race means a concurrent request already rotated this token; that
	// request keeps its pair, this one gets rejected.
	_, err = s.revocations.Revoke(ctx, userID, claims.ID, claims.ExpiresAt.Time, domain.ReasonRotation)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRevocation) {
			s.log.WithFields(logrus.Fields{
				"jti":     claims.ID,
				"user_id": userID,
			}).Warn("concurrent rotation detected")
			return nil, ErrTokenRevoked
		}
		return nil, err
	}

	return pair, nil
}

// Logout consumes the presented refresh token. Idempotent: logging out an
// already-consumed token succeeds and reports it.
func (s *Service) Logout(ctx context.Context, refreshRaw string, callerID int64) (*LogoutResult, error) {
	claims, err := s.codec.Decode(refreshRaw)
	if err != nil {
		return nil, ErrMalformedToken
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return &LogoutResult{AlreadyRevoked: true}, nil
	}

	_, err = s.revocations.Revoke(ctx, callerID, claims.ID, claims.ExpiresAt.Time, domain.ReasonLogout)
	if err != nil {
		// Lost a race against a concurrent logout/rotation: same outcome.
		if errors.Is(err, repository.ErrDuplicateRevocation) {
			return &LogoutResult{AlreadyRevoked: true}, nil
		}
		return nil, err
	}

	return &LogoutResult{}, nil
}

// ChangePassword verifies the old password and persists a new hash.
// Existing tokens stay valid; forced re-login would use ReasonPasswordChange.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, retypePassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	// Old password first: a caller who gets everything wrong hears about
	// the old password, not the confirmation.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}

	if newPassword != retypePassword {
		return ErrConfirmationMismatch
	}
	if newPassword == oldPassword {
		return ErrPasswordUnchanged
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, userID, string(hash))
}

func (s *Service) issuePair(userID int64) (*TokenPair, error) {
	access, err := s.codec.Issue(userID, token.KindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Issue(userID, token.KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
