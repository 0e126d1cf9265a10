package session

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword    string `json:"old_password" binding:"required,min=8"`
	NewPassword    string `json:"new_password" binding:"required,min=8"`
	RetypePassword string `json:"retype_password" binding:"required,min=8"`
}
