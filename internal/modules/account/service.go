package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"accountsvc/internal/domain"
	"accountsvc/internal/pkg/mailer"
	"accountsvc/internal/pkg/signer"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service contains business logic for accounts: registration, profile and
// email verification.
type Service struct {
	users           UserRepositoryInterface
	mail            mailer.Mailer
	verifySigner    *signer.Signer
	verificationTTL time.Duration
	siteURL         string
	log             *logrus.Logger
}

func NewService(
	users UserRepositoryInterface,
	mail mailer.Mailer,
	verifySigner *signer.Signer,
	verificationTTL time.Duration,
	siteURL string,
	log *logrus.Logger,
) *Service {
	return &Service{
		users:           users,
		mail:            mail,
		verifySigner:    verifySigner,
		verificationTTL: verificationTTL,
		siteURL:         strings.TrimRight(siteURL, "/"),
		log:             log,
	}
}

// Register creates a new identity. Password confirmation is checked before
// anything is written; a mail transport failure after the row exists is
// logged and surfaced to the operator, never rolled back.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if req.Password != req.RetypePassword {
		return nil, ErrPasswordMismatch
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.SendVerificationEmail(ctx, user); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   user.Email,
		}).WithError(err).Error("failed to send verification email")
	}

	return user, nil
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile changes name fields only; email and password have their own
// flows.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// IsStaff resolves the staff flag for the admin middleware.
func (s *Service) IsStaff(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsStaff, nil
}
