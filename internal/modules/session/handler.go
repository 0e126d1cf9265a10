package session

import (
	"errors"
	"net/http"

	"accountsvc/internal/middleware"
	"accountsvc/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages HTTP interactions for the token lifecycle.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	tokenGroup := v1.Group("/token")
	{
		tokenGroup.POST("", h.Login)
		tokenGroup.POST("/refresh", h.Refresh)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	userGroup := protected.Group("/users")
	{
		userGroup.POST("/logout", h.Logout)
		userGroup.POST("/change-password", h.ChangePassword)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, pair, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		case errors.Is(err, ErrAccountInactive):
			response.Error(c, http.StatusUnauthorized, "ACCOUNT_INACTIVE", "Account is inactive")
		default:
			response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to log in")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
		},
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenRevoked):
			response.Error(c, http.StatusUnauthorized, "TOKEN_REVOKED", "Token has been revoked")
		case errors.Is(err, ErrInvalidToken):
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired")
		default:
			response.Error(c, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh session")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	callerID := c.GetInt64(middleware.CtxUserID)
	result, err := h.service.Logout(c.Request.Context(), req.Refresh, callerID)
	if err != nil {
		if errors.Is(err, ErrMalformedToken) {
			response.Error(c, http.StatusBadRequest, "MALFORMED_TOKEN", "Refresh token is malformed")
			return
		}
		response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to log out")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"detail":          "Successfully logged out",
		"already_revoked": result.AlreadyRevoked,
	})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	userID := c.GetInt64(middleware.CtxUserID)
	err := h.service.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword, req.RetypePassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrWrongPassword):
			response.ErrorWithDetails(c, http.StatusBadRequest, "WRONG_PASSWORD", "Wrong password",
				gin.H{"old_password": []string{"Wrong Password"}})
		case errors.Is(err, ErrConfirmationMismatch):
			response.ErrorWithDetails(c, http.StatusBadRequest, "PASSWORD_MISMATCH", "Passwords do not match",
				gin.H{"new_password": []string{"Passwords do not match"}, "retype_password": []string{"Passwords do not match"}})
		case errors.Is(err, ErrPasswordUnchanged):
			response.ErrorWithDetails(c, http.StatusBadRequest, "PASSWORD_UNCHANGED", "New password must be different",
				gin.H{"new_password": []string{"New password must be different"}})
		default:
			response.Error(c, http.StatusInternalServerError, "CHANGE_PASSWORD_FAILED", "Failed to change password")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"detail": "Password changed successfully"})
}
