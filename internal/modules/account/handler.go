package account

import (
	"errors"
	"net/http"
	"time"

	"accountsvc/internal/domain"
	"accountsvc/internal/middleware"
	"accountsvc/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages HTTP interactions for accounts and email verification.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	userGroup := v1.Group("/users")
	{
		userGroup.POST("", h.Register)
		userGroup.GET("/verify-email/:token", h.VerifyEmail)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	userGroup := protected.Group("/users")
	{
		userGroup.GET("/me", h.GetMe)
		userGroup.PUT("/me", h.UpdateProfile)
		userGroup.POST("/resend-verification", h.ResendVerification)
	}
	staffGroup := protected.Group("/users")
	staffGroup.Use(middleware.RequireStaff(h.service.IsStaff))
	{
		staffGroup.GET("", h.ListUsers)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPasswordMismatch):
			response.ErrorWithDetails(c, http.StatusBadRequest, "PASSWORD_MISMATCH", "Passwords do not match",
				gin.H{"password": []string{"Passwords do not match"}, "retype_password": []string{"Passwords do not match"}})
		case errors.Is(err, ErrEmailAlreadyExists):
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
		default:
			response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register user")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	result, err := h.service.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrInvalidVerification) {
			response.Error(c, http.StatusBadRequest, "INVALID_VERIFICATION", "Invalid verification token")
			return
		}
		response.Error(c, http.StatusInternalServerError, "VERIFICATION_FAILED", "Failed to verify email")
		return
	}

	switch result.Status {
	case StatusExpired:
		response.Error(c, http.StatusBadRequest, "VERIFICATION_EXPIRED", "Verification link expired or invalid")
	case StatusAlreadyVerified:
		response.Success(c, http.StatusOK, gin.H{
			"detail":           "Email already verified",
			"already_verified": true,
		})
	default:
		response.Success(c, http.StatusOK, gin.H{
			"detail":           "Email verified successfully",
			"already_verified": false,
		})
	}
}

func (h *Handler) ResendVerification(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserID)
	if err := h.service.ResendVerification(c.Request.Context(), userID); err != nil {
		response.Error(c, http.StatusInternalServerError, "RESEND_FAILED", "Failed to send verification email")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"detail": "Verification email sent"})
}

func (h *Handler) GetMe(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserID)
	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	userID := c.GetInt64(middleware.CtxUserID)
	user, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update profile")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list users")
		return
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"users": out})
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		FullName:      u.FullName(),
		EmailVerified: u.EmailVerified,
		IsActive:      u.IsActive,
		DateJoined:    u.CreatedAt.Format(time.RFC3339),
	}
}
