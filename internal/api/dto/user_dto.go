package dto

import "github.com/spec-kit/helpdesk-api/internal/domain"

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// LoginResponse carries the signed token and the account.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email, Role: user.Role}
}
