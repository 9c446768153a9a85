package handler

import "github.com/markethub/backend/internal/application/identity"

// LoginRequest represents a login request
// @Description Login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"admin"`
	Password string `json:"password" binding:"required,min=8,max=128" example:"SecurePass123"`
}

// RefreshTokenRequest represents a token refresh request
// @Description Refresh token exchange request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" example:"eyJhbGciOiJIUzI1NiIs..."`
}

// ChangePasswordRequest represents a password change request
// @Description Password change request for the current user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required" example:"OldPass123"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128" example:"NewPass456"`
}

// LoginResponse represents a successful login response
// @Description Issued token pair plus the authenticated user
type LoginResponse struct {
	AccessToken  string           `json:"access_token" example:"eyJhbGciOiJIUzI1NiIs..."`
	RefreshToken string           `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIs..."`
	ExpiresIn    int64            `json:"expires_in" example:"900"`
	TokenType    string           `json:"token_type" example:"Bearer"`
	User         identity.UserDTO `json:"user"`
}

// CurrentUserResponse represents the current user payload
// @Description Authenticated user with effective permissions
type CurrentUserResponse struct {
	User        identity.UserDTO `json:"user"`
	Permissions []string         `json:"permissions"`
}

// LogoutResponse represents a logout confirmation
// @Description Logout confirmation
type LogoutResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}
