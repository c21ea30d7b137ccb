// Package users is the administrative user management service.
package users

import (
	"context"
	"strings"
	"time"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/id"
	"adminpanel/internal/core/security"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/auth"
	"adminpanel/internal/domain/filter"
	"adminpanel/pkg/logger"
)

// Filter narrows GetPaged.
type Filter struct {
	filter.Page
	Search   string     `form:"searchTerm"`
	IsActive *bool      `form:"isActive"`
	From     *time.Time `form:"fromDate" time_format:"2006-01-02"`
	To       *time.Time `form:"toDate" time_format:"2006-01-02"`
	RoleID   *int64     `form:"roleId"`
}

// Repository is the user store seen by administration. Lookups apply the
// caller's tenant scope and exclude soft-deleted users.
type Repository interface {
	GetByID(ctx context.Context, userID int64) (*auth.User, error)
	GetByUsername(ctx context.Context, username string) (*auth.User, error)
	// ListPaged returns users ordered by id descending.
	ListPaged(ctx context.Context, f Filter) ([]auth.User, int64, error)
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, u *auth.User) error
	Update(ctx context.Context, u *auth.User) error
	RoleNames(ctx context.Context, userID int64) ([]string, error)
	RoleNamesByUser(ctx context.Context, userIDs []int64) (map[int64][]string, error)
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
}

// Checker answers per-user permission questions.
type Checker interface {
	HasPermission(ctx context.Context, userID int64, code string) (bool, error)
	ResolvePermissionCodes(ctx context.Context, userID int64) ([]string, error)
}

// CreateRequest creates a user on behalf of an administrator.
type CreateRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=50,username"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6,max=100,strong_password"`
	FullName    string  `json:"fullName" validate:"required,min=2,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,phone"`
	IsActive    *bool   `json:"isActive"`
	RoleIDs     []int64 `json:"roleIds"`
}

// UpdateRequest edits a user. Nil fields are left unchanged; a non-nil
// RoleIDs replaces the role set.
type UpdateRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	FullName    *string `json:"fullName" validate:"omitempty,min=2,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,phone"`
	IsActive    *bool   `json:"isActive"`
	RoleIDs     []int64 `json:"roleIds"`
}

// ChangePasswordRequest changes the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type Config struct {
	DefaultTenantID int64
	DefaultRoleID   int64
}

type Service struct {
	repo      Repository
	checker   Checker
	hasher    security.PasswordHasher
	txManager tx.Manager
	audit     audit.Writer
	config    Config
	now       func() time.Time
}

func NewService(repo Repository, checker Checker, hasher security.PasswordHasher, txManager tx.Manager, recorder audit.Writer, config Config) *Service {
	return &Service{
		repo:      repo,
		checker:   checker,
		hasher:    hasher,
		txManager: txManager,
		audit:     recorder,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetByID returns the user with role names.
func (s *Service) GetByID(ctx context.Context, userID int64) (*auth.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withRoles(ctx, u)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return s.withRoles(ctx, u)
}

func (s *Service) withRoles(ctx context.Context, u *auth.User) (*auth.User, error) {
	roles, err := s.repo.RoleNames(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []string{}
	}
	u.Roles = roles
	return u, nil
}

func (s *Service) GetPaged(ctx context.Context, f Filter) (filter.Result[auth.User], error) {
	f.Page = f.Page.Normalize()
	f.Search = strings.TrimSpace(f.Search)
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return filter.Result[auth.User]{}, apperror.NewValidation("fromDate must not be after toDate")
	}

	list, total, err := s.repo.ListPaged(ctx, f)
	if err != nil {
		return filter.Result[auth.User]{}, err
	}

	if len(list) > 0 {
		ids := make([]int64, len(list))
		for i := range list {
			ids[i] = list[i].ID
		}
		byUser, err := s.repo.RoleNamesByUser(ctx, ids)
		if err != nil {
			return filter.Result[auth.User]{}, err
		}
		for i := range list {
			list[i].Roles = byUser[list[i].ID]
			if list[i].Roles == nil {
				list[i].Roles = []string{}
			}
		}
	}
	return filter.NewResult(list, total, f.Page), nil
}

// Create adds a user in the caller's tenant, falling back to the default
// tenant for unscoped callers. With no roles given the default role is used.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*auth.User, error) {
	if err := auth.Validate(req); err != nil {
		return nil, err
	}

	roleIDs := id.Unique(req.RoleIDs)
	if len(roleIDs) == 0 {
		roleIDs = []int64{s.config.DefaultRoleID}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &auth.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		PhoneNumber:  req.PhoneNumber,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	u.TenantID = s.config.DefaultTenantID
	u.StampTenant(ctx)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkUnique(ctx, u.Username, u.Email, 0); err != nil {
			return err
		}
		u.StampCreated(ctx, s.now())
		if err := s.repo.Create(ctx, u); err != nil {
			return err
		}
		return s.repo.ReplaceRoles(ctx, u.ID, roleIDs)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityUser, u.ID, audit.ActionCreate, nil, u)
	logger.Info(ctx, "user created", "user_id", u.ID, "username", u.Username)
	return s.GetByID(ctx, u.ID)
}

func (s *Service) Update(ctx context.Context, userID int64, req UpdateRequest) (*auth.User, error) {
	if err := auth.Validate(req); err != nil {
		return nil, err
	}
	var roleIDs []int64
	if req.RoleIDs != nil {
		roleIDs = id.Unique(req.RoleIDs)
		if len(roleIDs) == 0 {
			return nil, apperror.NewValidation("at least one role is required")
		}
	}

	var before, after auth.User
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		before = *u

		if req.Email != nil {
			email := strings.TrimSpace(*req.Email)
			if !strings.EqualFold(email, u.Email) {
				exists, err := s.repo.ExistsByEmail(ctx, email, userID)
				if err != nil {
					return err
				}
				if exists {
					return apperror.NewDuplicate("user", "email", email)
				}
			}
			u.Email = email
		}
		if req.FullName != nil {
			u.FullName = strings.TrimSpace(*req.FullName)
		}
		if req.PhoneNumber != nil {
			u.PhoneNumber = req.PhoneNumber
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		u.StampUpdated(ctx, s.now())
		if err := s.repo.Update(ctx, u); err != nil {
			return err
		}
		if roleIDs != nil {
			if err := s.repo.ReplaceRoles(ctx, userID, roleIDs); err != nil {
				return err
			}
		}
		after = *u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityUser, userID, audit.ActionUpdate, before, after)
	return s.GetByID(ctx, userID)
}

// Delete soft-deletes the user and revokes its refresh token.
func (s *Service) Delete(ctx context.Context, userID int64) error {
	var before auth.User
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		before = *u
		u.ClearRefreshToken()
		u.MarkDeleted(ctx, s.now())
		return s.repo.Update(ctx, u)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityUser, userID, audit.ActionDelete, before, nil)
	logger.Info(ctx, "user deleted", "user_id", userID)
	return nil
}

// ChangePassword requires the current password to verify.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if err := auth.Validate(req); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(req.CurrentPassword, u.PasswordHash) {
			return apperror.NewPasswordMismatch().WithDetail("field", "currentPassword")
		}
		if req.NewPassword != req.ConfirmPassword {
			return apperror.NewPasswordMismatch()
		}
		if err := auth.ValidatePassword(req.NewPassword); err != nil {
			return err
		}
		return s.setPassword(ctx, u, req.NewPassword)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityUser, userID, audit.ActionUpdate, nil, map[string]string{"password": "changed"})
	return nil
}

// ResetPassword sets a new password without the current one and lifts any
// lockout.
func (s *Service) ResetPassword(ctx context.Context, userID int64, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		u.FailedLoginAttempts = 0
		u.LockoutEnd = nil
		return s.setPassword(ctx, u, newPassword)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityUser, userID, audit.ActionUpdate, nil, map[string]string{"password": "reset"})
	logger.Info(ctx, "password reset by administrator", "user_id", userID)
	return nil
}

func (s *Service) setPassword(ctx context.Context, u *auth.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.StampUpdated(ctx, s.now())
	return s.repo.Update(ctx, u)
}

func (s *Service) ToggleStatus(ctx context.Context, userID int64) (bool, error) {
	var active bool
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		u.IsActive = !u.IsActive
		u.StampUpdated(ctx, s.now())
		active = u.IsActive
		return s.repo.Update(ctx, u)
	})
	if err != nil {
		return false, err
	}

	s.audit.Record(ctx, audit.EntityUser, userID, audit.ActionUpdate,
		map[string]bool{"isActive": !active}, map[string]bool{"isActive": active})
	return active, nil
}

// AssignRoles replaces the user's role set. At least one role is required.
func (s *Service) AssignRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	ids := id.Unique(roleIDs)
	if len(ids) == 0 {
		return apperror.NewValidation("at least one role is required")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, userID); err != nil {
			return err
		}
		return s.repo.ReplaceRoles(ctx, userID, ids)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityUser, userID, audit.ActionUpdate, nil, map[string]any{"roleIds": ids})
	return nil
}

func (s *Service) GetUserPermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.checker.ResolvePermissionCodes(ctx, userID)
}

func (s *Service) HasPermission(ctx context.Context, userID int64, code string) (bool, error) {
	return s.checker.HasPermission(ctx, userID, code)
}

func (s *Service) checkUnique(ctx context.Context, username, email string, excludeID int64) error {
	exists, err := s.repo.ExistsByUsername(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("user", "username", username)
	}
	exists, err = s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("user", "email", email)
	}
	return nil
}
