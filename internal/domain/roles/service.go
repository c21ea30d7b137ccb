// Package roles manages roles and their grant sets.
//
// System roles are immutable: update, delete, status and grant changes are
// all rejected with SYSTEM_ROLE_PROTECTED.
package roles

import (
	"context"
	"strings"
	"time"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/id"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/filter"
	"adminpanel/internal/domain/rbac"
	"adminpanel/pkg/logger"
)

// Filter narrows GetPaged.
type Filter struct {
	filter.Page
	Search       string `form:"searchTerm"`
	IsActive     *bool  `form:"isActive"`
	IsSystemRole *bool  `form:"isSystemRole"`
}

// Counts is the number of users and granted permissions of one role.
type Counts struct {
	RoleID      int64 `db:"role_id"`
	Users       int   `db:"users_count"`
	Permissions int   `db:"permissions_count"`
}

// Repository is the role store. Lookups exclude soft-deleted roles.
type Repository interface {
	GetByID(ctx context.Context, roleID int64) (*rbac.Role, error)
	// List returns all roles ordered by name.
	List(ctx context.Context) ([]rbac.Role, error)
	ListPaged(ctx context.Context, f Filter) ([]rbac.Role, int64, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, r *rbac.Role) error
	Update(ctx context.Context, r *rbac.Role) error
	Counts(ctx context.Context, roleIDs []int64) ([]Counts, error)

	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	// GrantedPermissions returns the permissions the role holds.
	GrantedPermissions(ctx context.Context, roleID int64) ([]rbac.PermissionAssignment, error)
	ReplacePageActions(ctx context.Context, roleID int64, pageActionIDs []int64) error
	// PageActions returns every active page action flagged with the role's grant.
	PageActions(ctx context.Context, roleID int64) ([]rbac.PageActionAssignment, error)
}

// CreateRequest creates a role, optionally with an initial permission set.
type CreateRequest struct {
	Name          string  `json:"name" binding:"required,max=100"`
	Description   *string `json:"description" binding:"omitempty,max=500"`
	PermissionIDs []int64 `json:"permissionIds"`
}

// UpdateRequest edits a non-system role.
type UpdateRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    bool    `json:"isActive"`
}

type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Writer
	now       func() time.Time
}

func NewService(repo Repository, txManager tx.Manager, recorder audit.Writer) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		audit:     recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetByID returns the role with its user and permission counts.
func (s *Service) GetByID(ctx context.Context, roleID int64) (*rbac.Role, error) {
	r, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	list := []rbac.Role{*r}
	if err := s.fillCounts(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *Service) GetAll(ctx context.Context) ([]rbac.Role, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.fillCounts(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) GetPaged(ctx context.Context, f Filter) (filter.Result[rbac.Role], error) {
	f.Page = f.Page.Normalize()
	f.Search = strings.TrimSpace(f.Search)

	list, total, err := s.repo.ListPaged(ctx, f)
	if err != nil {
		return filter.Result[rbac.Role]{}, err
	}
	if err := s.fillCounts(ctx, list); err != nil {
		return filter.Result[rbac.Role]{}, err
	}
	return filter.NewResult(list, total, f.Page), nil
}

func (s *Service) fillCounts(ctx context.Context, list []rbac.Role) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	counts, err := s.repo.Counts(ctx, ids)
	if err != nil {
		return err
	}
	byRole := make(map[int64]Counts, len(counts))
	for _, c := range counts {
		byRole[c.RoleID] = c
	}
	for i := range list {
		c := byRole[list[i].ID]
		list[i].UsersCount = c.Users
		list[i].PermissionsCount = c.Permissions
	}
	return nil
}

// Create adds a non-system role. PermissionIDs are granted in the same
// transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*rbac.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.NewValidation("name is required")
	}

	r := &rbac.Role{
		Name:        name,
		Description: req.Description,
		IsActive:    true,
	}
	permIDs := id.Unique(req.PermissionIDs)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByName(ctx, name, 0)
		if err != nil {
			return err
		}
		if exists {
			return apperror.NewDuplicate("role", "name", name)
		}

		r.StampCreated(ctx, s.now())
		if err := s.repo.Create(ctx, r); err != nil {
			return err
		}
		if len(permIDs) > 0 {
			return s.repo.ReplacePermissions(ctx, r.ID, permIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.PermissionsCount = len(permIDs)
	s.audit.Record(ctx, audit.EntityRole, r.ID, audit.ActionCreate, nil, r)
	logger.Info(ctx, "role created", "role_id", r.ID, "name", r.Name)
	return r, nil
}

func (s *Service) Update(ctx context.Context, roleID int64, req UpdateRequest) (*rbac.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.NewValidation("name is required")
	}

	var before, after rbac.Role
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.mutable(ctx, roleID)
		if err != nil {
			return err
		}
		before = *r

		if name != r.Name {
			exists, err := s.repo.ExistsByName(ctx, name, roleID)
			if err != nil {
				return err
			}
			if exists {
				return apperror.NewDuplicate("role", "name", name)
			}
		}

		r.Name = name
		if req.Description != nil {
			r.Description = req.Description
		}
		r.IsActive = req.IsActive
		r.StampUpdated(ctx, s.now())
		if err := s.repo.Update(ctx, r); err != nil {
			return err
		}
		after = *r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityRole, roleID, audit.ActionUpdate, before, after)
	return s.GetByID(ctx, roleID)
}

// Delete soft-deletes a role that no user holds.
func (s *Service) Delete(ctx context.Context, roleID int64) error {
	var before rbac.Role
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.mutable(ctx, roleID)
		if err != nil {
			return err
		}
		before = *r

		counts, err := s.repo.Counts(ctx, []int64{roleID})
		if err != nil {
			return err
		}
		if len(counts) > 0 && counts[0].Users > 0 {
			return apperror.NewRoleHasUsers(roleID)
		}

		r.MarkDeleted(ctx, s.now())
		return s.repo.Update(ctx, r)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityRole, roleID, audit.ActionDelete, before, nil)
	logger.Info(ctx, "role deleted", "role_id", roleID)
	return nil
}

// ToggleStatus flips IsActive and returns the new value.
func (s *Service) ToggleStatus(ctx context.Context, roleID int64) (bool, error) {
	var active bool
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.mutable(ctx, roleID)
		if err != nil {
			return err
		}
		r.IsActive = !r.IsActive
		r.StampUpdated(ctx, s.now())
		active = r.IsActive
		return s.repo.Update(ctx, r)
	})
	if err != nil {
		return false, err
	}

	s.audit.Record(ctx, audit.EntityRole, roleID, audit.ActionUpdate,
		map[string]bool{"isActive": !active}, map[string]bool{"isActive": active})
	return active, nil
}

func (s *Service) IsNameUnique(ctx context.Context, name string, excludeID int64) (bool, error) {
	exists, err := s.repo.ExistsByName(ctx, strings.TrimSpace(name), excludeID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// AssignPermissions replaces the role's permission set with permissionIDs.
func (s *Service) AssignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	ids := id.Unique(permissionIDs)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.mutable(ctx, roleID); err != nil {
			return err
		}
		return s.repo.ReplacePermissions(ctx, roleID, ids)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityRole, roleID, audit.ActionUpdate, nil, map[string]any{"permissionIds": ids})
	logger.Info(ctx, "role permissions replaced", "role_id", roleID, "count", len(ids))
	return nil
}

func (s *Service) GetRolePermissions(ctx context.Context, roleID int64) ([]rbac.PermissionAssignment, error) {
	if _, err := s.repo.GetByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.GrantedPermissions(ctx, roleID)
}

// AssignPageActions replaces the role's page-action grants.
func (s *Service) AssignPageActions(ctx context.Context, roleID int64, pageActionIDs []int64) error {
	ids := id.Unique(pageActionIDs)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.mutable(ctx, roleID); err != nil {
			return err
		}
		return s.repo.ReplacePageActions(ctx, roleID, ids)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityRole, roleID, audit.ActionUpdate, nil, map[string]any{"pageActionIds": ids})
	logger.Info(ctx, "role page actions replaced", "role_id", roleID, "count", len(ids))
	return nil
}

func (s *Service) GetRolePageActions(ctx context.Context, roleID int64) ([]rbac.PageActionAssignment, error) {
	if _, err := s.repo.GetByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.PageActions(ctx, roleID)
}

// mutable loads a role and rejects system roles.
func (s *Service) mutable(ctx context.Context, roleID int64) (*rbac.Role, error) {
	r, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if r.IsSystemRole {
		return nil, apperror.NewSystemRoleProtected(roleID)
	}
	return r, nil
}
