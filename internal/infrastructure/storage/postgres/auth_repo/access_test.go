package auth_repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/tenant"
)

func TestPermissionGrantsQuery(t *testing.T) {
	sql, args, err := PermissionGrantsQuery([]int64{1, 2}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT rp.role_id, p.code, rp.is_granted FROM role_permissions rp "+
			"JOIN permissions p ON p.id = rp.permission_id "+
			"WHERE p.is_deleted = FALSE AND p.is_active = $1 AND rp.role_id IN ($2,$3)",
		sql)
	assert.Equal(t, []any{true, int64(1), int64(2)}, args)
}

func TestPageActionGrantsQuery_SkipsDeadRows(t *testing.T) {
	sql, _, err := PageActionGrantsQuery([]int64{4}).ToSql()
	require.NoError(t, err)
	for _, frag := range []string{
		"a.code AS action_code",
		"JOIN page_actions pa ON pa.id = rpa.page_action_id",
		"pa.is_active = $1",
		"pg.is_deleted = FALSE",
		"a.is_deleted = FALSE",
		"rpa.role_id IN ($4)",
	} {
		assert.Contains(t, sql, frag)
	}
}

func TestHasPermissionQuery(t *testing.T) {
	sql, args, err := HasPermissionQuery(context.Background(), 9, "Users.View").ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id "+
			"JOIN users u ON u.id = ur.user_id "+
			"JOIN role_permissions rp ON rp.role_id = r.id "+
			"JOIN permissions p ON p.id = rp.permission_id "+
			"WHERE r.is_deleted = FALSE AND r.is_active = $1 "+
			"AND u.is_deleted = FALSE AND u.is_active = $2 AND ur.user_id = $3 "+
			"AND p.is_deleted = FALSE AND p.is_active = $4 "+
			"AND p.code = $5 AND rp.is_granted = $6",
		sql)
	assert.Equal(t, []any{true, true, int64(9), true, "Users.View", true}, args)
}

func TestHasPermissionQuery_ScopedToUserTenant(t *testing.T) {
	ctx := tenant.WithTenant(context.Background(), 3)
	sql, args, err := HasPermissionQuery(ctx, 9, "Users.View").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "u.is_deleted = FALSE AND u.is_active = $2 AND (u.tenant_id IS NULL OR u.tenant_id = $3) AND ur.user_id = $4")
	assert.Equal(t, int64(3), args[2])
}

func TestHasPageActionQuery(t *testing.T) {
	sql, args, err := HasPageActionQuery(context.Background(), 9, 12, "edit").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "JOIN users u ON u.id = ur.user_id")
	assert.Contains(t, sql, "u.is_deleted = FALSE AND u.is_active = $")
	assert.Contains(t, sql, "LOWER(a.code) = $")
	assert.Equal(t, "edit", args[len(args)-1])
	assert.Contains(t, args, int64(12))
}

func TestLiveRoleIDsQuery_SkipsDeletedUsers(t *testing.T) {
	sql, args, err := LiveRoleIDsQuery(context.Background(), 5).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT r.id FROM user_roles ur JOIN roles r ON r.id = ur.role_id "+
			"JOIN users u ON u.id = ur.user_id "+
			"WHERE r.is_deleted = FALSE AND r.is_active = $1 "+
			"AND u.is_deleted = FALSE AND u.is_active = $2 AND ur.user_id = $3 ORDER BY r.id",
		sql)
	assert.Equal(t, []any{true, true, int64(5)}, args)
}

func TestEmptyRoleSetsSkipQueries(t *testing.T) {
	repo := NewAccessRepo(nil)
	grants, err := repo.PermissionGrants(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, grants)

	pa, err := repo.PageActionGrants(context.Background(), []int64{})
	require.NoError(t, err)
	assert.Empty(t, pa)
}
