package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"accountsvc/internal/domain"
	"accountsvc/internal/pkg/signer"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type VerifyStatus string

const (
	// StatusVerified: the token was valid and the email is now verified.
	StatusVerified VerifyStatus = "verified"
	// StatusAlreadyVerified: valid token, nothing to do; not an error.
	StatusAlreadyVerified VerifyStatus = "already_verified"
	// StatusExpired covers both expiry and a bad signature; callers cannot
	// tell the two apart.
	StatusExpired VerifyStatus = "expired"
)

type VerifyResult struct {
	Status VerifyStatus
	User   *domain.User
}

// VerificationToken signs subjectId:email into a URL-safe single string.
// Validity is purely signature + embedded timestamp; there is nothing to
// revoke server-side.
func (s *Service) VerificationToken(user *domain.User) string {
	return s.verifySigner.Sign(fmt.Sprintf("%d:%s", user.ID, user.Email))
}

// SendVerificationEmail issues a token and mails the verification link.
// Transport failures propagate; the caller decides whether they are fatal.
func (s *Service) SendVerificationEmail(ctx context.Context, user *domain.User) error {
	verifyURL := fmt.Sprintf("%s/api/v1/users/verify-email/%s", s.siteURL, s.VerificationToken(user))

	greeting := user.FirstName
	if greeting == "" {
		greeting = "there"
	}
	subject := "Verify Your Email Address"
	body := fmt.Sprintf(
		"Hi %s\n"+
			"verify your email with below link :\n"+
			"verify link : %s\n"+
			"this link is valid for %s.",
		greeting, verifyURL, s.verificationTTL,
	)

	if err := s.mail.Send(ctx, user.Email, subject, body); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("verification email sent")
	return nil
}

// ResendVerification re-sends the link for a not-yet-verified user. For an
// already-verified user it is accepted silently; the endpoint gives no hint
// about verification state.
func (s *Service) ResendVerification(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}
	return s.SendVerificationEmail(ctx, user)
}

// VerifyEmail validates a verification token and marks the user verified.
//
// Expiry and bad signature come back as the StatusExpired sentinel, not an
// error. Structural problems (missing separator, unknown user, email
// mismatch) are all ErrInvalidVerification, with no detail about which
// check failed. Idempotent for an already-verified user.
func (s *Service) VerifyEmail(ctx context.Context, tokenStr string) (*VerifyResult, error) {
	value, err := s.verifySigner.Unsign(tokenStr, s.verificationTTL)
	if err != nil {
		if errors.Is(err, signer.ErrSignatureExpired) || errors.Is(err, signer.ErrBadSignature) {
			s.log.WithFields(logrus.Fields{
				"token_preview": preview(tokenStr),
			}).WithError(err).Warn("verification token rejected")
			return &VerifyResult{Status: StatusExpired}, nil
		}
		return nil, err
	}

	idStr, email, found := strings.Cut(value, ":")
	if !found {
		return nil, ErrInvalidVerification
	}
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, ErrInvalidVerification
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerification
		}
		return nil, err
	}
	if user.Email != email {
		return nil, ErrInvalidVerification
	}

	if user.EmailVerified {
		return &VerifyResult{Status: StatusAlreadyVerified, User: user}, nil
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.EmailVerified = true

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("email verified")
	return &VerifyResult{Status: StatusVerified, User: user}, nil
}

func preview(token string) string {
	if len(token) > 20 {
		return token[:20]
	}
	return token
}
