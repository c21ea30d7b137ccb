// Package access aggregates the effective grants of a user across roles.
//
// Grants are purely additive: a user holds a permission or page action if
// any live role holds it. A row with is_granted=false never subtracts a grant
// given by another role. Nothing is cached, so revocations apply on the next
// call.
package access

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// PageActionKey identifies one granted (page, action) pair.
type PageActionKey struct {
	PageID     int64  `db:"page_id" json:"pageId"`
	ActionCode string `db:"action_code" json:"actionCode"`
}

// PermissionGrant is one role_permissions row joined to its permission code.
type PermissionGrant struct {
	RoleID    int64  `db:"role_id"`
	Code      string `db:"code"`
	IsGranted bool   `db:"is_granted"`
}

// PageActionGrant is one role_page_actions row joined to its page action.
type PageActionGrant struct {
	RoleID     int64  `db:"role_id"`
	PageID     int64  `db:"page_id"`
	ActionCode string `db:"action_code"`
	IsGranted  bool   `db:"is_granted"`
}

// Repository loads the raw grant rows.
//
// LiveRoleIDs, HasPermission and HasPageAction see only active, non-deleted
// roles of an active, non-deleted user; a removed user holds nothing. The
// grant loaders skip inactive or deleted permissions, pages, actions and page
// actions.
type Repository interface {
	LiveRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	PermissionGrants(ctx context.Context, roleIDs []int64) ([]PermissionGrant, error)
	PageActionGrants(ctx context.Context, roleIDs []int64) ([]PageActionGrant, error)
	HasPermission(ctx context.Context, userID int64, code string) (bool, error)
	HasPageAction(ctx context.Context, userID, pageID int64, actionCode string) (bool, error)
}

// Service is the permission aggregator.
type Service struct {
	repo Repository
}

// NewService creates the aggregator.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RoleIDs returns the user's live role ids.
func (s *Service) RoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := s.repo.LiveRoleIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return ids, nil
}

// ResolvePermissionCodes returns the sorted, distinct permission codes granted
// to the user by any live role.
func (s *Service) ResolvePermissionCodes(ctx context.Context, userID int64) ([]string, error) {
	roleIDs, err := s.RoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.PermissionCodesForRoles(ctx, roleIDs)
}

// PermissionCodesForRoles is ResolvePermissionCodes for already loaded roles.
func (s *Service) PermissionCodesForRoles(ctx context.Context, roleIDs []int64) ([]string, error) {
	if len(roleIDs) == 0 {
		return []string{}, nil
	}

	grants, err := s.repo.PermissionGrants(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("load permission grants: %w", err)
	}
	return UnionPermissionCodes(grants), nil
}

// ResolveGrantedPageActions returns the distinct (page, action) pairs granted
// to the user by any live role, ordered by page then action code.
func (s *Service) ResolveGrantedPageActions(ctx context.Context, userID int64) ([]PageActionKey, error) {
	roleIDs, err := s.RoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.PageActionsForRoles(ctx, roleIDs)
}

// PageActionsForRoles is ResolveGrantedPageActions for already loaded roles.
func (s *Service) PageActionsForRoles(ctx context.Context, roleIDs []int64) ([]PageActionKey, error) {
	if len(roleIDs) == 0 {
		return []PageActionKey{}, nil
	}

	grants, err := s.repo.PageActionGrants(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("load page action grants: %w", err)
	}
	return UnionPageActions(grants), nil
}

// HasPermission reports whether any live role of the user grants code.
func (s *Service) HasPermission(ctx context.Context, userID int64, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	ok, err := s.repo.HasPermission(ctx, userID, code)
	if err != nil {
		return false, fmt.Errorf("check permission %s: %w", code, err)
	}
	return ok, nil
}

// HasPageAction reports whether any live role of the user grants actionCode on pageID.
func (s *Service) HasPageAction(ctx context.Context, userID, pageID int64, actionCode string) (bool, error) {
	if actionCode == "" {
		return false, nil
	}
	ok, err := s.repo.HasPageAction(ctx, userID, pageID, strings.ToLower(actionCode))
	if err != nil {
		return false, fmt.Errorf("check page action %d/%s: %w", pageID, actionCode, err)
	}
	return ok, nil
}

// UnionPermissionCodes folds grant rows into a sorted set of granted codes.
func UnionPermissionCodes(grants []PermissionGrant) []string {
	set := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		if g.IsGranted {
			set[g.Code] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// UnionPageActions folds grant rows into a set of granted keys. Action codes
// are lower-cased so the set is case-insensitive.
func UnionPageActions(grants []PageActionGrant) []PageActionKey {
	set := make(map[PageActionKey]struct{}, len(grants))
	for _, g := range grants {
		if !g.IsGranted {
			continue
		}
		set[PageActionKey{PageID: g.PageID, ActionCode: strings.ToLower(g.ActionCode)}] = struct{}{}
	}

	out := make([]PageActionKey, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PageID != out[j].PageID {
			return out[i].PageID < out[j].PageID
		}
		return out[i].ActionCode < out[j].ActionCode
	})
	return out
}
