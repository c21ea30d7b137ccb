// Package permissions serves the permission catalog.
package permissions

import (
	"context"
	"strings"
	"time"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/rbac"
)

// Repository is the permission store.
type Repository interface {
	// ListActive returns active permissions ordered by module, display order.
	ListActive(ctx context.Context) ([]rbac.Permission, error)
	GetByID(ctx context.Context, permissionID int64) (*rbac.Permission, error)
	GetByCode(ctx context.Context, code string) (*rbac.Permission, error)
	Update(ctx context.Context, p *rbac.Permission) error
	// ListForRole returns every active permission flagged with the role's grant.
	ListForRole(ctx context.Context, roleID int64) ([]rbac.PermissionAssignment, error)
}

// RoleLookup verifies role existence.
type RoleLookup interface {
	GetByID(ctx context.Context, roleID int64) (*rbac.Role, error)
}

// Checker answers per-user permission questions.
type Checker interface {
	HasPermission(ctx context.Context, userID int64, code string) (bool, error)
	ResolvePermissionCodes(ctx context.Context, userID int64) ([]string, error)
}

// Group is the permissions of one module.
type Group struct {
	Module        string            `json:"module"`
	DisplayNameAr string            `json:"displayNameAr"`
	DisplayNameEn string            `json:"displayNameEn"`
	Permissions   []rbac.Permission `json:"permissions"`
}

// UpdateRequest edits the presentational fields of a permission.
type UpdateRequest struct {
	DisplayNameAr string `json:"displayNameAr" binding:"required,max=100"`
	DisplayNameEn string `json:"displayNameEn" binding:"required,max=100"`
	DisplayOrder  int    `json:"displayOrder"`
}

type Service struct {
	repo      Repository
	roles     RoleLookup
	checker   Checker
	txManager tx.Manager
	audit     audit.Writer
	now       func() time.Time
}

func NewService(repo Repository, roles RoleLookup, checker Checker, txManager tx.Manager, recorder audit.Writer) *Service {
	return &Service{
		repo:      repo,
		roles:     roles,
		checker:   checker,
		txManager: txManager,
		audit:     recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) GetAll(ctx context.Context) ([]rbac.Permission, error) {
	return s.repo.ListActive(ctx)
}

// GetGrouped groups active permissions by module, keeping catalog order.
func (s *Service) GetGrouped(ctx context.Context) ([]Group, error) {
	perms, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByModule(perms), nil
}

// GroupByModule buckets perms by module in first-seen order.
func GroupByModule(perms []rbac.Permission) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)
	for _, p := range perms {
		i, ok := index[p.Module]
		if !ok {
			ar, en := rbac.ModuleDisplayName(p.Module)
			groups = append(groups, Group{Module: p.Module, DisplayNameAr: ar, DisplayNameEn: en})
			i = len(groups) - 1
			index[p.Module] = i
		}
		groups[i].Permissions = append(groups[i].Permissions, p)
	}
	return groups
}

func (s *Service) GetByID(ctx context.Context, permissionID int64) (*rbac.Permission, error) {
	return s.repo.GetByID(ctx, permissionID)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*rbac.Permission, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.NewValidation("code is required")
	}
	return s.repo.GetByCode(ctx, code)
}

// Update changes display names and order. Code, module and action are fixed.
func (s *Service) Update(ctx context.Context, permissionID int64, req UpdateRequest) (*rbac.Permission, error) {
	var before, after rbac.Permission

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, permissionID)
		if err != nil {
			return err
		}
		before = *p

		p.DisplayNameAr = req.DisplayNameAr
		p.DisplayNameEn = req.DisplayNameEn
		p.DisplayOrder = req.DisplayOrder
		p.StampUpdated(ctx, s.now())
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		after = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityPermission, permissionID, audit.ActionUpdate, before, after)
	return &after, nil
}

// GetPermissionsForRole lists the catalog with the role's grant flags.
func (s *Service) GetPermissionsForRole(ctx context.Context, roleID int64) ([]rbac.PermissionAssignment, error) {
	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.ListForRole(ctx, roleID)
}

func (s *Service) HasPermission(ctx context.Context, userID int64, code string) (bool, error) {
	return s.checker.HasPermission(ctx, userID, code)
}

func (s *Service) GetUserPermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.checker.ResolvePermissionCodes(ctx, userID)
}
