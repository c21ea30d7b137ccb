// Package pages manages the page catalog and the actions each page offers.
package pages

import (
	"context"
	"sort"
	"strings"
	"time"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/id"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/filter"
	"adminpanel/internal/domain/menu"
	"adminpanel/internal/domain/rbac"
	"adminpanel/pkg/logger"
)

// Filter narrows GetPaged.
type Filter struct {
	filter.Page
	Search   string `form:"searchTerm"`
	IsActive *bool  `form:"isActive"`
	IsInMenu *bool  `form:"isInMenu"`
	ParentID *int64 `form:"parentId"`
}

// ListItem is a page row in a paged listing.
type ListItem struct {
	rbac.Page
	ParentNameAr  *string `db:"parent_name_ar" json:"parentNameAr,omitempty"`
	ActionsCount  int     `db:"actions_count" json:"actionsCount"`
	ChildrenCount int     `db:"children_count" json:"childrenCount"`
}

// Detail is a page with its parent name and offered actions.
type Detail struct {
	rbac.Page
	ParentNameAr     *string       `json:"parentNameAr,omitempty"`
	AvailableActions []rbac.Action `json:"availableActions"`
}

// DropdownItem is a parent-picker entry.
type DropdownItem struct {
	ID       int64  `json:"id"`
	NameAr   string `json:"nameAr"`
	ParentID *int64 `json:"parentId,omitempty"`
}

// Repository is the page store. Lookups exclude soft-deleted pages.
type Repository interface {
	GetByID(ctx context.Context, pageID int64) (*rbac.Page, error)
	ListPaged(ctx context.Context, f Filter) ([]ListItem, int64, error)
	// ListAll returns every non-deleted page.
	ListAll(ctx context.Context) ([]rbac.Page, error)
	// ListMenuPages returns the non-deleted, active, in-menu pages.
	ListMenuPages(ctx context.Context) ([]rbac.Page, error)
	ExistsByURL(ctx context.Context, url string, excludeID int64) (bool, error)
	Create(ctx context.Context, p *rbac.Page) error
	Update(ctx context.Context, p *rbac.Page) error
	HasChildren(ctx context.Context, pageID int64) (bool, error)

	// Actions returns the active actions offered on the page, by display order.
	Actions(ctx context.Context, pageID int64) ([]rbac.Action, error)
	// ActionsWithAssignment returns every active action flagged with whether
	// the page offers it.
	ActionsWithAssignment(ctx context.Context, pageID int64) ([]rbac.ActionAssignment, error)
	// ReplaceActions makes actionIDs the page's active action set. Page
	// actions outside the set are hard-deleted with their role grants.
	ReplaceActions(ctx context.Context, pageID int64, actionIDs []int64) error
}

// CreateRequest creates a page.
type CreateRequest struct {
	NameAr       string  `json:"nameAr" binding:"required,max=100"`
	NameEn       string  `json:"nameEn" binding:"required,max=100"`
	URL          string  `json:"url" binding:"required,max=200"`
	Icon         *string `json:"icon" binding:"omitempty,max=100"`
	ParentID     *int64  `json:"parentId"`
	DisplayOrder int     `json:"displayOrder"`
	IsInMenu     bool    `json:"isInMenu"`
}

// UpdateRequest replaces a page's editable fields.
type UpdateRequest struct {
	NameAr       string  `json:"nameAr" binding:"required,max=100"`
	NameEn       string  `json:"nameEn" binding:"required,max=100"`
	URL          string  `json:"url" binding:"required,max=200"`
	Icon         *string `json:"icon" binding:"omitempty,max=100"`
	ParentID     *int64  `json:"parentId"`
	DisplayOrder int     `json:"displayOrder"`
	IsActive     bool    `json:"isActive"`
	IsInMenu     bool    `json:"isInMenu"`
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

// GetPaged lists pages ordered by display order then id.
func (s *Service) GetPaged(ctx context.Context, f Filter) (filter.Result[ListItem], error) {
	f.Page = f.Page.Normalize()
	f.Search = strings.TrimSpace(f.Search)

	items, total, err := s.repo.ListPaged(ctx, f)
	if err != nil {
		return filter.Result[ListItem]{}, err
	}
	return filter.NewResult(items, total, f.Page), nil
}

func (s *Service) GetByID(ctx context.Context, pageID int64) (*Detail, error) {
	p, err := s.repo.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	actions, err := s.repo.Actions(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if actions == nil {
		actions = []rbac.Action{}
	}

	d := &Detail{Page: *p, AvailableActions: actions}
	if p.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *p.ParentID)
		switch {
		case err == nil:
			d.ParentNameAr = &parent.NameAr
		case !apperror.IsNotFound(err):
			return nil, err
		}
	}
	return d, nil
}

// GetDropdown lists active pages for a parent picker. When excludeID is set,
// that page and all of its descendants are left out.
func (s *Service) GetDropdown(ctx context.Context, excludeID int64) ([]DropdownItem, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var skip map[int64]struct{}
	if excludeID > 0 {
		skip = rbac.Descendants(all, excludeID)
		skip[excludeID] = struct{}{}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].DisplayOrder != all[j].DisplayOrder {
			return all[i].DisplayOrder < all[j].DisplayOrder
		}
		return all[i].ID < all[j].ID
	})

	out := make([]DropdownItem, 0, len(all))
	for _, p := range all {
		if !p.IsActive {
			continue
		}
		if _, ok := skip[p.ID]; ok {
			continue
		}
		out = append(out, DropdownItem{ID: p.ID, NameAr: p.NameAr, ParentID: p.ParentID})
	}
	return out, nil
}

// GetMenuPages returns every active in-menu page as a tree, ignoring grants.
func (s *Service) GetMenuPages(ctx context.Context) ([]*menu.MenuItem, error) {
	list, err := s.repo.ListMenuPages(ctx)
	if err != nil {
		return nil, err
	}
	return menu.BuildPageTree(list), nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Detail, error) {
	p := &rbac.Page{
		NameAr:       strings.TrimSpace(req.NameAr),
		NameEn:       strings.TrimSpace(req.NameEn),
		URL:          rbac.NormalizeURL(req.URL),
		Icon:         req.Icon,
		ParentID:     req.ParentID,
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
		IsInMenu:     req.IsInMenu,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkURL(ctx, p.URL, 0); err != nil {
			return err
		}
		if p.ParentID != nil {
			if _, err := s.repo.GetByID(ctx, *p.ParentID); err != nil {
				if apperror.IsNotFound(err) {
					return invalidParent("parent page not found")
				}
				return err
			}
		}
		p.StampCreated(ctx, s.now())
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityPage, p.ID, audit.ActionCreate, nil, p)
	logger.Info(ctx, "page created", "page_id", p.ID, "url", p.URL)
	return s.GetByID(ctx, p.ID)
}

// Update rejects a parent that is the page itself or one of its descendants.
func (s *Service) Update(ctx context.Context, pageID int64, req UpdateRequest) (*rbac.Page, error) {
	var before, after rbac.Page

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, pageID)
		if err != nil {
			return err
		}
		before = *p

		url := rbac.NormalizeURL(req.URL)
		if err := s.checkURL(ctx, url, pageID); err != nil {
			return err
		}

		if req.ParentID != nil {
			if *req.ParentID == pageID {
				return invalidParent("a page cannot be its own parent")
			}
			all, err := s.repo.ListAll(ctx)
			if err != nil {
				return err
			}
			if !containsPage(all, *req.ParentID) {
				return invalidParent("parent page not found")
			}
			if !rbac.ValidParent(all, pageID, *req.ParentID) {
				return invalidParent("a child page cannot become the parent")
			}
		}

		p.NameAr = strings.TrimSpace(req.NameAr)
		p.NameEn = strings.TrimSpace(req.NameEn)
		p.URL = url
		p.Icon = req.Icon
		p.ParentID = req.ParentID
		p.DisplayOrder = req.DisplayOrder
		p.IsActive = req.IsActive
		p.IsInMenu = req.IsInMenu
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

	s.audit.Record(ctx, audit.EntityPage, pageID, audit.ActionUpdate, before, after)
	return &after, nil
}

// Delete removes the page's page actions and soft-deletes it. Pages with
// live children cannot be deleted.
func (s *Service) Delete(ctx context.Context, pageID int64) error {
	var before rbac.Page

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, pageID)
		if err != nil {
			return err
		}
		before = *p

		hasChildren, err := s.repo.HasChildren(ctx, pageID)
		if err != nil {
			return err
		}
		if hasChildren {
			return apperror.NewBusinessRule(apperror.CodePageHasChildren,
				"Cannot delete a page that has child pages").WithDetail("page_id", pageID)
		}

		if err := s.repo.ReplaceActions(ctx, pageID, nil); err != nil {
			return err
		}
		p.MarkDeleted(ctx, s.now())
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityPage, pageID, audit.ActionDelete, before, nil)
	logger.Info(ctx, "page deleted", "page_id", pageID)
	return nil
}

func (s *Service) ToggleStatus(ctx context.Context, pageID int64) (bool, error) {
	var active bool
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, pageID)
		if err != nil {
			return err
		}
		p.IsActive = !p.IsActive
		p.StampUpdated(ctx, s.now())
		active = p.IsActive
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return false, err
	}

	s.audit.Record(ctx, audit.EntityPage, pageID, audit.ActionUpdate,
		map[string]bool{"isActive": !active}, map[string]bool{"isActive": active})
	return active, nil
}

// IsURLUnique normalizes url before checking.
func (s *Service) IsURLUnique(ctx context.Context, url string, excludeID int64) (bool, error) {
	exists, err := s.repo.ExistsByURL(ctx, rbac.NormalizeURL(url), excludeID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *Service) GetPageActions(ctx context.Context, pageID int64) ([]rbac.Action, error) {
	if _, err := s.repo.GetByID(ctx, pageID); err != nil {
		return nil, err
	}
	return s.repo.Actions(ctx, pageID)
}

func (s *Service) GetAllActionsWithAssignment(ctx context.Context, pageID int64) ([]rbac.ActionAssignment, error) {
	if _, err := s.repo.GetByID(ctx, pageID); err != nil {
		return nil, err
	}
	return s.repo.ActionsWithAssignment(ctx, pageID)
}

// AssignActions replaces the set of actions offered on the page. Role grants
// on removed page actions go with them.
func (s *Service) AssignActions(ctx context.Context, pageID int64, actionIDs []int64) error {
	ids := id.Unique(actionIDs)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, pageID); err != nil {
			return err
		}
		return s.repo.ReplaceActions(ctx, pageID, ids)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityPage, pageID, audit.ActionUpdate, nil, map[string]any{"actionIds": ids})
	return nil
}

func (s *Service) checkURL(ctx context.Context, url string, excludeID int64) error {
	exists, err := s.repo.ExistsByURL(ctx, url, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("page", "url", url)
	}
	return nil
}

func invalidParent(msg string) *apperror.AppError {
	return apperror.NewBusinessRule(apperror.CodeInvalidParent, msg)
}

func containsPage(pages []rbac.Page, pageID int64) bool {
	for _, p := range pages {
		if p.ID == pageID {
			return true
		}
	}
	return false
}
