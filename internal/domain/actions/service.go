// Package actions manages the action catalog (view, create, edit, ...).
package actions

import (
	"context"
	"strings"
	"time"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/filter"
	"adminpanel/internal/domain/rbac"
)

// Filter narrows GetPaged.
type Filter struct {
	filter.Page
	Search   string `form:"searchTerm"`
	IsActive *bool  `form:"isActive"`
}

// Repository is the action store. Lookups exclude soft-deleted actions.
type Repository interface {
	GetByID(ctx context.Context, actionID int64) (*rbac.Action, error)
	// ListActive returns active actions by display order.
	ListActive(ctx context.Context) ([]rbac.Action, error)
	ListPaged(ctx context.Context, f Filter) ([]rbac.Action, int64, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, a *rbac.Action) error
	Update(ctx context.Context, a *rbac.Action) error
	// InUse reports whether any page offers the action.
	InUse(ctx context.Context, actionID int64) (bool, error)
}

// Request creates or updates an action.
type Request struct {
	NameAr       string  `json:"nameAr" binding:"required,max=100"`
	NameEn       string  `json:"nameEn" binding:"required,max=100"`
	Code         string  `json:"code" binding:"required,max=50"`
	Icon         *string `json:"icon" binding:"omitempty,max=100"`
	DisplayOrder int     `json:"displayOrder"`
	IsActive     *bool   `json:"isActive"`
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

func (s *Service) GetPaged(ctx context.Context, f Filter) (filter.Result[rbac.Action], error) {
	f.Page = f.Page.Normalize()
	f.Search = strings.TrimSpace(f.Search)

	list, total, err := s.repo.ListPaged(ctx, f)
	if err != nil {
		return filter.Result[rbac.Action]{}, err
	}
	return filter.NewResult(list, total, f.Page), nil
}

func (s *Service) GetByID(ctx context.Context, actionID int64) (*rbac.Action, error) {
	return s.repo.GetByID(ctx, actionID)
}

func (s *Service) GetAll(ctx context.Context) ([]rbac.Action, error) {
	return s.repo.ListActive(ctx)
}

// Create adds an action. Codes are stored lower-case and must be unique.
func (s *Service) Create(ctx context.Context, req Request) (*rbac.Action, error) {
	a := &rbac.Action{
		NameAr:       strings.TrimSpace(req.NameAr),
		NameEn:       strings.TrimSpace(req.NameEn),
		Code:         normalizeCode(req.Code),
		Icon:         req.Icon,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if a.Code == "" {
		return nil, apperror.NewValidation("code is required")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkCode(ctx, a.Code, 0); err != nil {
			return err
		}
		a.StampCreated(ctx, s.now())
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityAction, a.ID, audit.ActionCreate, nil, a)
	return a, nil
}

func (s *Service) Update(ctx context.Context, actionID int64, req Request) (*rbac.Action, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, apperror.NewValidation("code is required")
	}

	var before, after rbac.Action
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, actionID)
		if err != nil {
			return err
		}
		before = *a

		if err := s.checkCode(ctx, code, actionID); err != nil {
			return err
		}

		a.NameAr = strings.TrimSpace(req.NameAr)
		a.NameEn = strings.TrimSpace(req.NameEn)
		a.Code = code
		a.Icon = req.Icon
		a.DisplayOrder = req.DisplayOrder
		if req.IsActive != nil {
			a.IsActive = *req.IsActive
		}
		a.StampUpdated(ctx, s.now())
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		after = *a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityAction, actionID, audit.ActionUpdate, before, after)
	return &after, nil
}

// Delete soft-deletes an action no page offers.
func (s *Service) Delete(ctx context.Context, actionID int64) error {
	var before rbac.Action
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, actionID)
		if err != nil {
			return err
		}
		before = *a

		inUse, err := s.repo.InUse(ctx, actionID)
		if err != nil {
			return err
		}
		if inUse {
			return apperror.NewBusinessRule(apperror.CodeActionInUse,
				"Cannot delete an action that is assigned to pages").WithDetail("action_id", actionID)
		}

		a.MarkDeleted(ctx, s.now())
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityAction, actionID, audit.ActionDelete, before, nil)
	return nil
}

func (s *Service) ToggleStatus(ctx context.Context, actionID int64) (bool, error) {
	var active bool
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, actionID)
		if err != nil {
			return err
		}
		a.IsActive = !a.IsActive
		a.StampUpdated(ctx, s.now())
		active = a.IsActive
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return false, err
	}

	s.audit.Record(ctx, audit.EntityAction, actionID, audit.ActionUpdate,
		map[string]bool{"isActive": !active}, map[string]bool{"isActive": active})
	return active, nil
}

func (s *Service) IsCodeUnique(ctx context.Context, code string, excludeID int64) (bool, error) {
	exists, err := s.repo.ExistsByCode(ctx, normalizeCode(code), excludeID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *Service) checkCode(ctx context.Context, code string, excludeID int64) error {
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("action", "code", code)
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
