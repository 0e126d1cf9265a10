package account

type RegisterRequest struct {
	Email          string `json:"email" binding:"required,email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Password       string `json:"password" binding:"required,min=8"`
	RetypePassword string `json:"retype_password" binding:"required,min=8"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type UserResponse struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	FullName      string `json:"full_name"`
	EmailVerified bool   `json:"email_verified"`
	IsActive      bool   `json:"is_active"`
	DateJoined    string `json:"date_joined"`
}
