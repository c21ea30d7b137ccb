package auth_repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/tenant"
	"adminpanel/internal/domain/filter"
	"adminpanel/internal/domain/users"
)

func TestUserColumns(t *testing.T) {
	assert.Contains(t, userColumns, "tenant_id")
	assert.Contains(t, userColumns, "refresh_token_expiry")
	assert.NotContains(t, userColumns, "roles")
	assert.NotContains(t, userInsertCols, "id")
	assert.NotContains(t, userUpdateCols, "tenant_id")
	assert.NotContains(t, userUpdateCols, "created_at")
	assert.Contains(t, userUpdateCols, "is_deleted")
}

func TestUserListQuery(t *testing.T) {
	repo := NewUserRepo(nil)
	ctx := tenant.WithTenant(context.Background(), 2)
	active := true
	roleID := int64(3)

	q := repo.ListQuery(ctx, users.Filter{
		Page:     filter.Page{Number: 2, Size: 5},
		Search:   "ann",
		IsActive: &active,
		RoleID:   &roleID,
	})
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM users u WHERE u.is_deleted = FALSE AND (u.tenant_id IS NULL OR u.tenant_id = $1)")
	assert.Contains(t, sql, "(u.username ILIKE $2 OR u.email ILIKE $3 OR u.full_name ILIKE $4)")
	assert.Contains(t, sql, "u.is_active = $5")
	assert.Contains(t, sql, "ur.role_id = $6)")
	assert.Contains(t, sql, "ORDER BY u.id DESC")
	assert.Equal(t, []any{int64(2), "%ann%", "%ann%", "%ann%", true, int64(3)}, args)
}

func TestUserListQuery_DateRangeIsInclusive(t *testing.T) {
	repo := NewUserRepo(nil)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	_, args, err := repo.ListQuery(context.Background(), users.Filter{From: &from, To: &to}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, []any{from, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}, args)
}

func TestExistsQuery_IsGlobal(t *testing.T) {
	sql, args, err := existsQuery("email", "a@b.c", 4).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM users WHERE email = $1 AND is_deleted = FALSE AND id <> $2", sql)
	assert.Equal(t, []any{"a@b.c", int64(4)}, args)

	sql, _, err = existsQuery("username", "ann", 0).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "id <>")
	assert.NotContains(t, sql, "tenant_id")
}

func TestExpiredTokenQueries(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	qs := ExpiredTokenQueries(now)
	require.Len(t, qs, 2)

	sql, args, err := qs[0].ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET refresh_token = $1, refresh_token_expiry = $2 WHERE refresh_token_expiry < $3", sql)
	assert.Equal(t, []any{nil, nil, now}, args)

	sql, _, err = qs[1].ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "password_reset_token = $1")
	assert.Contains(t, sql, "WHERE password_reset_token_expiry < $3")
}
