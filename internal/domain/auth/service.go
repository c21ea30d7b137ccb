package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"adminpanel/internal/core/apperror"
	appctx "adminpanel/internal/core/context"
	"adminpanel/internal/core/security"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
	"adminpanel/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	RefreshTokenTTL  time.Duration
	ResetTokenTTL    time.Duration
	DefaultTenantID  int64
	DefaultRoleID    int64
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts: 5,
		LockoutDuration:  15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
		ResetTokenTTL:    24 * time.Hour,
		DefaultTenantID:  1,
		DefaultRoleID:    2,
	}
}

// Service provides authentication.
type Service struct {
	users       UserRepository
	permissions PermissionResolver
	hasher      security.PasswordHasher
	jwt         *JWTService
	mailer      Mailer
	audit       Recorder
	txManager   tx.Manager
	config      ServiceConfig
	now         func() time.Time
}

// NewService creates a new auth service.
func NewService(
	users UserRepository,
	permissions PermissionResolver,
	hasher security.PasswordHasher,
	jwtService *JWTService,
	mailer Mailer,
	recorder Recorder,
	txManager tx.Manager,
	config ServiceConfig,
) *Service {
	return &Service{
		users:       users,
		permissions: permissions,
		hasher:      hasher,
		jwt:         jwtService,
		mailer:      mailer,
		audit:       recorder,
		txManager:   txManager,
		config:      config,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates by username and password.
//
// The user row stays locked for the whole attempt, so concurrent failures
// cannot lose counter increments. A failed password still commits the
// updated counter before the error is returned.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		session *Session
		user    *User
		denied  error
	)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByUsernameForUpdate(ctx, req.Username)
		if err != nil {
			if apperror.IsNotFound(err) {
				denied = apperror.NewInvalidCredentials()
				return nil
			}
			return fmt.Errorf("load user: %w", err)
		}

		if !u.IsActive {
			denied = apperror.NewAccountDisabled()
			return nil
		}
		if u.IsLocked(now) {
			denied = apperror.NewAccountLocked()
			return nil
		}

		if !s.hasher.Verify(req.Password, u.PasswordHash) {
			if u.RegisterFailedLogin(s.config.MaxLoginAttempts, s.config.LockoutDuration, now) {
				logger.Warn(ctx, "account locked after failed logins",
					"user_id", u.ID,
					"lockout_end", u.LockoutEnd)
			}
			if err := s.users.Update(ctx, u); err != nil {
				return fmt.Errorf("record failed login: %w", err)
			}
			denied = apperror.NewInvalidCredentials()
			return nil
		}

		u.RegisterSuccessfulLogin(now)
		session, err = s.issueSession(ctx, u, now)
		if err != nil {
			return err
		}
		if err := s.users.Update(ctx, u); err != nil {
			return fmt.Errorf("save login state: %w", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	if denied != nil {
		logger.Info(ctx, "login rejected", "username", req.Username, "reason", denied.Error())
		return nil, denied
	}

	s.audit.RecordLogin(ctx, user.ID, user.Username, appctx.GetClient(ctx).IPAddress)
	logger.Info(ctx, "user logged in", "user_id", user.ID, "username", user.Username)
	return session, nil
}

// RefreshToken exchanges a refresh token for a new session. The presented
// token is overwritten, so it cannot be used twice.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperror.NewInvalidToken()
	}

	now := s.now()
	var session *Session

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByRefreshTokenForUpdate(ctx, security.HashToken(refreshToken))
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewInvalidToken()
			}
			return fmt.Errorf("load user by refresh token: %w", err)
		}
		if !u.RefreshTokenValid(now) {
			return apperror.NewInvalidToken()
		}
		if !u.IsActive {
			return apperror.NewAccountDisabled()
		}

		session, err = s.issueSession(ctx, u, now)
		if err != nil {
			return err
		}
		if err := s.users.Update(ctx, u); err != nil {
			return fmt.Errorf("rotate refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Logout revokes the user's refresh token. Unknown users and users without
// a token succeed as well.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	var user *User

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("load user: %w", err)
		}
		user = u
		if u.RefreshToken == nil && u.RefreshTokenExpiry == nil {
			return nil
		}
		u.ClearRefreshToken()
		return s.users.Update(ctx, u)
	})
	if err != nil {
		return err
	}

	if user != nil {
		s.audit.RecordLogout(ctx, user.ID, user.Username)
	}
	return nil
}

// ForgotPassword starts a password reset. It succeeds whether or not the
// email is known, so callers cannot probe for accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	now := s.now()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("load user: %w", err)
		}

		token, err := security.NewOneTimeToken()
		if err != nil {
			return err
		}
		u.SetPasswordResetToken(security.HashToken(token), now.Add(s.config.ResetTokenTTL))
		if err := s.users.Update(ctx, u); err != nil {
			return fmt.Errorf("save reset token: %w", err)
		}
		if err := s.mailer.SendPasswordReset(ctx, u, token); err != nil {
			return fmt.Errorf("queue reset email: %w", err)
		}

		logger.Info(ctx, "password reset requested", "user_id", u.ID)
		return nil
	})
}

// ResetPassword completes a reset with the emailed token.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := Validate(req); err != nil {
		return err
	}

	now := s.now()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByEmailForUpdate(ctx, req.Email)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewInvalidToken()
			}
			return fmt.Errorf("load user: %w", err)
		}

		if !digestMatches(u.PasswordResetToken, req.Token) {
			return apperror.NewInvalidToken()
		}
		if u.PasswordResetTokenExpiry == nil || u.PasswordResetTokenExpiry.Before(now) {
			return apperror.NewTokenExpired()
		}
		if req.NewPassword != req.ConfirmPassword {
			return apperror.NewPasswordMismatch()
		}
		if err := ValidatePassword(req.NewPassword); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
		u.ClearPasswordResetToken()
		u.StampUpdated(ctx, now)
		if err := s.users.Update(ctx, u); err != nil {
			return fmt.Errorf("save password: %w", err)
		}

		logger.Info(ctx, "password reset", "user_id", u.ID)
		return nil
	})
}

// Register creates a self-registered account in the default tenant with the
// default role and queues the welcome and confirmation emails.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByUsername(ctx, req.Username, 0)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("Username already exists").WithDetail("field", "username")
	}

	exists, err = s.users.ExistsByEmail(ctx, req.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("Email already exists").WithDetail("field", "email")
	}

	if req.Password != req.ConfirmPassword {
		return nil, apperror.NewPasswordMismatch()
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	confirmToken, err := security.NewOneTimeToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	digest := security.HashToken(confirmToken)
	u := &User{
		Username:               req.Username,
		Email:                  req.Email,
		PasswordHash:           hash,
		FullName:               req.FullName,
		IsActive:               true,
		EmailConfirmationToken: &digest,
	}
	if req.PhoneNumber != "" {
		phone := req.PhoneNumber
		u.PhoneNumber = &phone
	}
	u.TenantID = s.config.DefaultTenantID
	u.StampCreated(ctx, now)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		if err := s.users.ReplaceRoles(ctx, u.ID, []int64{s.config.DefaultRoleID}); err != nil {
			return fmt.Errorf("assign default role: %w", err)
		}
		if err := s.mailer.SendWelcome(ctx, u); err != nil {
			return fmt.Errorf("queue welcome email: %w", err)
		}
		if err := s.mailer.SendEmailConfirmation(ctx, u, confirmToken); err != nil {
			return fmt.Errorf("queue confirmation email: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityUser, u.ID, audit.ActionCreate, nil, u)
	logger.Info(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// ConfirmEmail marks the address confirmed when token matches.
func (s *Service) ConfirmEmail(ctx context.Context, email, token string) error {
	if strings.TrimSpace(email) == "" || token == "" {
		return apperror.NewInvalidToken()
	}

	now := s.now()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewInvalidToken()
			}
			return fmt.Errorf("load user: %w", err)
		}
		if !digestMatches(u.EmailConfirmationToken, token) {
			return apperror.NewInvalidToken()
		}

		u.EmailConfirmed = true
		u.EmailConfirmationToken = nil
		u.StampUpdated(ctx, now)
		return s.users.Update(ctx, u)
	})
}

// Me returns the signed-in user's profile with live roles and permissions.
func (s *Service) Me(ctx context.Context, userID int64) (*UserInfo, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.users.RoleNames(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	perms, err := s.permissions.ResolvePermissionCodes(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	info := userInfo(u, roles, perms)
	return &info, nil
}

// issueSession signs a new access token and rotates the refresh token on u.
// The caller persists u.
func (s *Service) issueSession(ctx context.Context, u *User, now time.Time) (*Session, error) {
	roles, err := s.users.RoleNames(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	perms, err := s.permissions.ResolvePermissionCodes(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	access, accessExp, err := s.jwt.Sign(BuildSessionClaims(u, roles, perms), now)
	if err != nil {
		return nil, err
	}

	refresh, err := security.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	refreshExp := now.Add(s.config.RefreshTokenTTL)
	u.SetRefreshToken(security.HashToken(refresh), refreshExp)
	u.Roles = roles

	return &Session{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		User:                  userInfo(u, roles, perms),
	}, nil
}

func userInfo(u *User, roles, perms []string) UserInfo {
	if roles == nil {
		roles = []string{}
	}
	if perms == nil {
		perms = []string{}
	}
	return UserInfo{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FullName:        u.FullName,
		ProfileImageURL: u.ProfileImageURL,
		Roles:           roles,
		Permissions:     perms,
	}
}

// digestMatches compares a stored token digest with a presented raw token.
func digestMatches(stored *string, token string) bool {
	if stored == nil || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(security.HashToken(token))) == 1
}
