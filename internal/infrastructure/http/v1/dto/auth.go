// Package dto provides data transfer objects for HTTP API.
package dto

import (
	"adminpanel/internal/domain/auth"
	"adminpanel/internal/domain/users"
)

// --- Request DTOs ---

// RegisterRequest for self-service registration.
type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	FullName        string `json:"fullName" binding:"required"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
}

// ToAuthRequest converts to domain request.
func (r *RegisterRequest) ToAuthRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Username:        r.Username,
		Email:           r.Email,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
		FullName:        r.FullName,
		PhoneNumber:     r.PhoneNumber,
	}
}

// LoginRequest for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.LoginRequest {
	return auth.LoginRequest{
		Username: r.Username,
		Password: r.Password,
	}
}

// RefreshTokenRequest for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Email           string `json:"email" binding:"required"`
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// ToAuthRequest converts to domain request.
func (r *ResetPasswordRequest) ToAuthRequest() auth.ResetPasswordRequest {
	return auth.ResetPasswordRequest{
		Email:           r.Email,
		Token:           r.Token,
		NewPassword:     r.NewPassword,
		ConfirmPassword: r.ConfirmPassword,
	}
}

// ConfirmEmailRequest confirms a registered address.
type ConfirmEmailRequest struct {
	Email string `json:"email" form:"email" binding:"required"`
	Token string `json:"token" form:"token" binding:"required"`
}

// AdminResetPasswordRequest sets a user's password without the current one.
type AdminResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required"`
}

// ChangePasswordRequest changes the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// ToUsersRequest converts to domain request.
func (r *ChangePasswordRequest) ToUsersRequest() users.ChangePasswordRequest {
	return users.ChangePasswordRequest{
		CurrentPassword: r.CurrentPassword,
		NewPassword:     r.NewPassword,
		ConfirmPassword: r.ConfirmPassword,
	}
}

// --- Response DTOs ---

// TokenResponse is the session handed to the client after login or refresh.
type TokenResponse struct {
	*auth.Session
	TokenType string `json:"tokenType"`
}

// FromSession wraps a domain session.
func FromSession(s *auth.Session) TokenResponse {
	return TokenResponse{Session: s, TokenType: "Bearer"}
}
