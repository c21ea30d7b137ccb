package rbac_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/domain/filter"
	"adminpanel/internal/domain/pages"
	"adminpanel/internal/domain/roles"
)

func TestRoleListQuery(t *testing.T) {
	system := false
	sql, args, err := ListQuery(roles.Filter{
		Page:         filter.Page{Number: 1, Size: 10},
		Search:       "man",
		IsSystemRole: &system,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM roles r WHERE r.is_deleted = FALSE AND (r.name ILIKE $1 OR r.description ILIKE $2) AND r.is_system_role = $3")
	assert.Contains(t, sql, "ORDER BY r.name")
	assert.Equal(t, []any{"%man%", "%man%", false}, args)
}

func TestCountsQuery(t *testing.T) {
	sql, args, err := CountsQuery([]int64{1, 2}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "r.id AS role_id")
	assert.Contains(t, sql, "u.is_deleted = FALSE) AS users_count")
	assert.Contains(t, sql, "rp.is_granted AND p.is_deleted = FALSE AND p.is_active) AS permissions_count")
	assert.Contains(t, sql, "WHERE r.id IN ($1,$2)")
	assert.Equal(t, []any{int64(1), int64(2)}, args)
}

func TestPageActionsQuery_LeftJoinsRoleGrant(t *testing.T) {
	sql, args, err := PageActionsQuery(5).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "COALESCE(rpa.is_granted, FALSE) AS is_granted")
	assert.Contains(t, sql, "LEFT JOIN role_page_actions rpa ON rpa.page_action_id = pa.id AND rpa.role_id = $1")
	assert.Equal(t, int64(5), args[0])
}

func TestListForRoleQuery(t *testing.T) {
	sql, args, err := ListForRoleQuery(3).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "LEFT JOIN role_permissions rp ON rp.permission_id = p.id AND rp.role_id = $1")
	assert.Contains(t, sql, "ORDER BY p.module, p.display_order, p.id")
	assert.Equal(t, []any{int64(3), true}, args)
}

func TestPageListQuery(t *testing.T) {
	parent := int64(4)
	inMenu := true
	sql, args, err := (&PageRepo{}).ListQuery(pages.Filter{ParentID: &parent, IsInMenu: &inMenu}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "parent.name_ar AS parent_name_ar")
	assert.Contains(t, sql, "AS actions_count")
	assert.Contains(t, sql, "AS children_count")
	assert.Contains(t, sql, "LEFT JOIN pages parent ON parent.id = pg.parent_id AND parent.is_deleted = FALSE")
	assert.Contains(t, sql, "pg.is_in_menu = $1 AND pg.parent_id = $2")
	assert.Contains(t, sql, "ORDER BY pg.display_order, pg.id")
	assert.Equal(t, []any{true, int64(4)}, args)
}

func TestReplaceActionsQueries(t *testing.T) {
	qs := ReplaceActionsQueries(7, []int64{1, 2})
	require.Len(t, qs, 2)

	sql, args, err := qs[0].ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM page_actions WHERE page_id = $1 AND action_id NOT IN ($2,$3)", sql)
	assert.Equal(t, []any{int64(7), int64(1), int64(2)}, args)

	sql, args, err = qs[1].ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO page_actions (page_id,action_id,is_active) VALUES ($1,$2,$3),($4,$5,$6) "+
		"ON CONFLICT (page_id, action_id) DO UPDATE SET is_active = TRUE", sql)
	assert.Equal(t, []any{int64(7), int64(1), true, int64(7), int64(2), true}, args)

	qs = ReplaceActionsQueries(7, nil)
	require.Len(t, qs, 1)
	sql, _, err = qs[0].ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM page_actions WHERE page_id = $1", sql)
}

func TestActionsWithAssignmentQuery(t *testing.T) {
	sql, args, err := ActionsWithAssignmentQuery(2).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "(pa.id IS NOT NULL) AS is_assigned")
	assert.Contains(t, sql, "ORDER BY a.display_order, a.id")
	assert.Equal(t, []any{int64(2), true}, args)
}

func TestColumnSetsExcludeImmutables(t *testing.T) {
	assert.NotContains(t, permissionUpdateCols, "code")
	assert.Contains(t, permissionUpdateCols, "display_name_ar")
	assert.NotContains(t, roleColumns, "users_count")
	assert.NotContains(t, roleUpdateCols, "created_at")
	assert.Contains(t, pageInsertCols, "parent_id")
	assert.NotContains(t, actionInsertCols, "id")
}
