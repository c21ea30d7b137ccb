// Package auth implements the authentication state machine: login with
// lockout, token issue and refresh, logout, password reset, registration
// and email confirmation.
package auth

import (
	"time"

	"adminpanel/internal/core/entity"
)

// User is a tenant-scoped account.
//
// Token columns hold SHA-256 digests of the issued opaque tokens.
type User struct {
	entity.TenantEntity
	Username        string  `db:"username" json:"username"`
	Email           string  `db:"email" json:"email"`
	PasswordHash    string  `db:"password_hash" json:"-"`
	FullName        string  `db:"full_name" json:"fullName"`
	PhoneNumber     *string `db:"phone_number" json:"phoneNumber,omitempty"`
	ProfileImageURL *string `db:"profile_image_url" json:"profileImageUrl,omitempty"`
	IsActive        bool    `db:"is_active" json:"isActive"`
	EmailConfirmed  bool    `db:"email_confirmed" json:"emailConfirmed"`

	EmailConfirmationToken   *string    `db:"email_confirmation_token" json:"-"`
	PasswordResetToken       *string    `db:"password_reset_token" json:"-"`
	PasswordResetTokenExpiry *time.Time `db:"password_reset_token_expiry" json:"-"`
	RefreshToken             *string    `db:"refresh_token" json:"-"`
	RefreshTokenExpiry       *time.Time `db:"refresh_token_expiry" json:"-"`

	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockoutEnd          *time.Time `db:"lockout_end" json:"-"`

	Roles []string `db:"-" json:"roles,omitempty"`
}

// IsLocked reports whether the account is locked out at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockoutEnd != nil && u.LockoutEnd.After(now)
}

// RegisterFailedLogin increments the failure counter. Reaching maxAttempts
// locks the account for lockout and resets the counter. It reports whether
// the account became locked.
func (u *User) RegisterFailedLogin(maxAttempts int, lockout time.Duration, now time.Time) bool {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts < maxAttempts {
		return false
	}
	end := now.Add(lockout)
	u.LockoutEnd = &end
	u.FailedLoginAttempts = 0
	return true
}

// RegisterSuccessfulLogin clears the lockout state and stamps the login time.
func (u *User) RegisterSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockoutEnd = nil
	u.LastLoginAt = &now
}

// SetRefreshToken stores the digest of a newly issued refresh token,
// replacing any previous one.
func (u *User) SetRefreshToken(digest string, expiresAt time.Time) {
	u.RefreshToken = &digest
	u.RefreshTokenExpiry = &expiresAt
}

// ClearRefreshToken revokes the stored refresh token.
func (u *User) ClearRefreshToken() {
	u.RefreshToken = nil
	u.RefreshTokenExpiry = nil
}

// RefreshTokenValid reports whether the stored refresh token is unexpired at now.
func (u *User) RefreshTokenValid(now time.Time) bool {
	return u.RefreshToken != nil && u.RefreshTokenExpiry != nil && !u.RefreshTokenExpiry.Before(now)
}

// SetPasswordResetToken stores a reset token digest valid until expiresAt.
func (u *User) SetPasswordResetToken(digest string, expiresAt time.Time) {
	u.PasswordResetToken = &digest
	u.PasswordResetTokenExpiry = &expiresAt
}

// ClearPasswordResetToken consumes the reset token.
func (u *User) ClearPasswordResetToken() {
	u.PasswordResetToken = nil
	u.PasswordResetTokenExpiry = nil
}

// UserInfo is the public projection of a signed-in user.
type UserInfo struct {
	ID              int64    `json:"id"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	FullName        string   `json:"fullName"`
	ProfileImageURL *string  `json:"profileImageUrl,omitempty"`
	Roles           []string `json:"roles"`
	Permissions     []string `json:"permissions"`
}

// Session is the result of a login or refresh.
type Session struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	User                  UserInfo  `json:"user"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries a self-registration.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50,username"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=100,strong_password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName" validate:"required,min=2,max=100"`
	PhoneNumber     string `json:"phoneNumber" validate:"omitempty,phone"`
}

// ResetPasswordRequest completes a forgot-password flow.
type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// NewPasswordRequest is validated after the reset token has been accepted.
type NewPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=6,max=100,strong_password"`
}
