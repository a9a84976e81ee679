package auth

import (
	"github.com/Yashop965/CamPass/internal/users"
)

// RegisterRequest contains the payload for creating a campus account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=student parent warden guard admin"`
}

// LoginRequest carries the credentials for an existing account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the signed access token plus the account profile.
type LoginResponse struct {
	Token string        `json:"token"`
	User  users.UserDTO `json:"user"`
}
