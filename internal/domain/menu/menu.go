// Package menu builds the navigation tree a user is allowed to see.
//
// The menu is derived from persisted grants on every call, never from token
// claims. A page is shown when the user holds its "view" action, and every
// ancestor of a shown page is shown as well so the tree stays connected.
package menu

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"adminpanel/internal/domain/access"
	"adminpanel/internal/domain/rbac"
)

// MenuItem is one node of the rendered menu.
type MenuItem struct {
	ID           int64       `json:"id"`
	NameAr       string      `json:"nameAr"`
	NameEn       string      `json:"nameEn"`
	URL          string      `json:"url"`
	Icon         string      `json:"icon,omitempty"`
	DisplayOrder int         `json:"displayOrder"`
	Children     []*MenuItem `json:"children"`
}

// Grants resolves a user's roles and granted page actions.
type Grants interface {
	RoleIDs(ctx context.Context, userID int64) ([]int64, error)
	PageActionsForRoles(ctx context.Context, roleIDs []int64) ([]access.PageActionKey, error)
}

// PageSource lists the non-deleted, active, in-menu pages.
type PageSource interface {
	ListMenuPages(ctx context.Context) ([]rbac.Page, error)
}

// Builder builds user menus.
type Builder struct {
	grants Grants
	pages  PageSource
}

// NewBuilder creates a menu builder.
func NewBuilder(grants Grants, pages PageSource) *Builder {
	return &Builder{grants: grants, pages: pages}
}

// BuildUserMenu returns the ordered menu forest for userID.
func (b *Builder) BuildUserMenu(ctx context.Context, userID int64) ([]*MenuItem, error) {
	roleIDs, err := b.grants.RoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) == 0 {
		return []*MenuItem{}, nil
	}

	keys, err := b.grants.PageActionsForRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	viewable := make(map[int64]struct{})
	for _, k := range keys {
		if strings.EqualFold(k.ActionCode, rbac.ViewActionCode) {
			viewable[k.PageID] = struct{}{}
		}
	}
	if len(viewable) == 0 {
		return []*MenuItem{}, nil
	}

	pages, err := b.pages.ListMenuPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load menu pages: %w", err)
	}

	closure := AncestorClosure(viewable, pages)

	visible := make([]rbac.Page, 0, len(closure))
	for _, p := range pages {
		if _, ok := closure[p.ID]; ok {
			visible = append(visible, p)
		}
	}
	return BuildPageTree(visible), nil
}

// AncestorClosure extends granted with every ancestor reachable through pages.
// Granted ids absent from pages are dropped. Parent links that leave pages
// end the walk, and a visited set stops cycles.
func AncestorClosure(granted map[int64]struct{}, pages []rbac.Page) map[int64]struct{} {
	byID := make(map[int64]rbac.Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}

	closure := make(map[int64]struct{}, len(granted))
	for pageID := range granted {
		cur, ok := byID[pageID]
		for ok {
			if _, seen := closure[cur.ID]; seen {
				break
			}
			closure[cur.ID] = struct{}{}
			if cur.ParentID == nil {
				break
			}
			cur, ok = byID[*cur.ParentID]
		}
	}
	return closure
}

// BuildPageTree groups pages into a forest by ParentID. Only pages reachable
// from a root (nil ParentID) are kept, so the children of a hidden or missing
// section are dropped with it. Siblings are ordered by DisplayOrder then ID.
func BuildPageTree(pages []rbac.Page) []*MenuItem {
	sorted := make([]rbac.Page, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayOrder != sorted[j].DisplayOrder {
			return sorted[i].DisplayOrder < sorted[j].DisplayOrder
		}
		return sorted[i].ID < sorted[j].ID
	})

	roots := make([]*MenuItem, 0)
	children := make(map[int64][]*MenuItem)
	for _, p := range sorted {
		item := newItem(p)
		if p.ParentID == nil {
			roots = append(roots, item)
			continue
		}
		children[*p.ParentID] = append(children[*p.ParentID], item)
	}

	queue := append([]*MenuItem(nil), roots...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if kids := children[cur.ID]; len(kids) > 0 {
			cur.Children = kids
			queue = append(queue, kids...)
		}
	}
	return roots
}

func newItem(p rbac.Page) *MenuItem {
	item := &MenuItem{
		ID:           p.ID,
		NameAr:       p.NameAr,
		NameEn:       p.NameEn,
		URL:          p.URL,
		DisplayOrder: p.DisplayOrder,
		Children:     []*MenuItem{},
	}
	if p.Icon != nil {
		item.Icon = *p.Icon
	}
	return item
}
