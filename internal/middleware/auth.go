package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"accountsvc/internal/pkg/response"
	"accountsvc/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	// CtxUserID is the gin context key holding the authenticated user id.
	CtxUserID = "user_id"
	// CtxClaims holds the decoded token claims.
	CtxClaims = "claims"
)

// RevocationChecker is the one store lookup the guard needs.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticate decodes a bearer token if one is present and resolves an
// identity. A request without an Authorization header passes through
// anonymous; a request with a bad, expired or revoked token is rejected.
// This is the only place revocation is enforced for bearer tokens.
func Authenticate(codec *token.Service, revocations RevocationChecker, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := codec.Decode(strings.TrimSpace(parts[1]))
		if err != nil {
			switch {
			case errors.Is(err, token.ErrTokenExpired):
				abort(c, "TOKEN_EXPIRED", "Token has expired")
			default:
				abort(c, "INVALID_TOKEN", "Token is invalid")
			}
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication check failed")
			c.Abort()
			return
		}
		if revoked {
			log.WithFields(logrus.Fields{
				"jti": claims.ID,
				"sub": claims.Subject,
			}).Warn("revoked token presented")
			abort(c, "TOKEN_REVOKED", "Token has been revoked")
			return
		}

		userID, err := claims.SubjectID()
		if err != nil {
			abort(c, "INVALID_TOKEN", "Token is invalid")
			return
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// RequireAuth aborts requests that Authenticate left anonymous.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CtxUserID); !exists {
			abort(c, "AUTH_REQUIRED", "Authentication required")
			return
		}
		c.Next()
	}
}

// RequireStaff aborts requests from non-staff users. Must run after
// RequireAuth; the handler resolves staffness into the context.
func RequireStaff(isStaff func(ctx context.Context, userID int64) (bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64(CtxUserID)
		if userID == 0 {
			abort(c, "AUTH_REQUIRED", "Authentication required")
			return
		}
		staff, err := isStaff(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Permission check failed")
			c.Abort()
			return
		}
		if !staff {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Staff access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, code, message string) {
	response.Error(c, http.StatusUnauthorized, code, message)
	c.Abort()
}
