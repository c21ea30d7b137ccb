package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/entity"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/rbac"
)

type memRepo struct {
	perms  []rbac.Permission
	grants map[int64]map[int64]bool
}

func (m *memRepo) ListActive(context.Context) ([]rbac.Permission, error) {
	var out []rbac.Permission
	for _, p := range m.perms {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*rbac.Permission, error) {
	for i := range m.perms {
		if m.perms[i].ID == id {
			p := m.perms[i]
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("permission", id)
}

func (m *memRepo) GetByCode(_ context.Context, code string) (*rbac.Permission, error) {
	for i := range m.perms {
		if m.perms[i].Code == code {
			p := m.perms[i]
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("permission", code)
}

func (m *memRepo) Update(_ context.Context, p *rbac.Permission) error {
	for i := range m.perms {
		if m.perms[i].ID == p.ID {
			m.perms[i] = *p
		}
	}
	return nil
}

func (m *memRepo) ListForRole(_ context.Context, roleID int64) ([]rbac.PermissionAssignment, error) {
	var out []rbac.PermissionAssignment
	for _, p := range m.perms {
		out = append(out, rbac.PermissionAssignment{Permission: p, IsGranted: m.grants[roleID][p.ID]})
	}
	return out, nil
}

type memRoles map[int64]bool

func (r memRoles) GetByID(_ context.Context, id int64) (*rbac.Role, error) {
	if !r[id] {
		return nil, apperror.NewNotFound("role", id)
	}
	return &rbac.Role{BaseEntity: entity.BaseEntity{ID: id}}, nil
}

type nopChecker struct{}

func (nopChecker) HasPermission(context.Context, int64, string) (bool, error) { return true, nil }
func (nopChecker) ResolvePermissionCodes(context.Context, int64) ([]string, error) {
	return []string{rbac.PermUsersView}, nil
}

type recorded struct {
	entity string
	action audit.Action
}

type memAudit struct{ events []recorded }

func (a *memAudit) Record(_ context.Context, e string, _ int64, action audit.Action, _, _ any) {
	a.events = append(a.events, recorded{e, action})
}

func perm(id int64, module, action string, active bool) rbac.Permission {
	return rbac.Permission{
		BaseEntity: entity.BaseEntity{ID: id},
		Module:     module,
		Action:     action,
		Code:       module + "." + action,
		IsActive:   active,
	}
}

func newTestService() (*Service, *memRepo, *memAudit) {
	repo := &memRepo{
		perms: []rbac.Permission{
			perm(1, "Users", "View", true),
			perm(2, "Users", "Create", true),
			perm(3, "Roles", "View", true),
			perm(4, "Roles", "Delete", false),
		},
		grants: map[int64]map[int64]bool{1: {1: true, 3: true}},
	}
	rec := &memAudit{}
	return NewService(repo, memRoles{1: true}, nopChecker{}, tx.Passthrough, rec), repo, rec
}

func TestGetGrouped(t *testing.T) {
	svc, _, _ := newTestService()

	groups, err := svc.GetGrouped(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Users", groups[0].Module)
	assert.Equal(t, "Users", groups[0].DisplayNameEn)
	assert.NotEmpty(t, groups[0].DisplayNameAr)
	assert.Len(t, groups[0].Permissions, 2)

	assert.Equal(t, "Roles", groups[1].Module)
	assert.Len(t, groups[1].Permissions, 1, "inactive permissions are skipped")
}

func TestUpdate_OnlyPresentationalFields(t *testing.T) {
	svc, repo, rec := newTestService()

	p, err := svc.Update(context.Background(), 1, UpdateRequest{
		DisplayNameAr: "عرض", DisplayNameEn: "View users", DisplayOrder: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Users.View", p.Code)
	assert.Equal(t, 7, repo.perms[0].DisplayOrder)
	assert.NotNil(t, repo.perms[0].UpdatedAt)
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionUpdate, rec.events[0].action)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, rec := newTestService()
	_, err := svc.Update(context.Background(), 99, UpdateRequest{})
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, rec.events)
}

func TestGetPermissionsForRole(t *testing.T) {
	svc, _, _ := newTestService()

	list, err := svc.GetPermissionsForRole(context.Background(), 1)
	require.NoError(t, err)
	granted := map[string]bool{}
	for _, a := range list {
		granted[a.Code] = a.IsGranted
	}
	assert.True(t, granted["Users.View"])
	assert.False(t, granted["Users.Create"])

	_, err = svc.GetPermissionsForRole(context.Background(), 5)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGetByCode_Blank(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GetByCode(context.Background(), " ")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
