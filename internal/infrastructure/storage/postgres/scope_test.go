package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/tenant"
)

func TestNotDeleted(t *testing.T) {
	sql, args, err := NotDeleted("r").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "r.is_deleted = FALSE", sql)
	assert.Empty(t, args)

	sql, _, err = NotDeleted("").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "is_deleted = FALSE", sql)
}

func TestTenantMatches_Scoped(t *testing.T) {
	ctx := tenant.WithTenant(context.Background(), 3)

	sql, args, err := Builder().Select("u.id").From("users u").
		Where(NotDeleted("u")).
		Where(TenantMatches(ctx, "u")).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT u.id FROM users u WHERE u.is_deleted = FALSE AND (u.tenant_id IS NULL OR u.tenant_id = $1)", sql)
	assert.Equal(t, []any{int64(3)}, args)
}

func TestTenantMatches_Unscoped(t *testing.T) {
	assert.Nil(t, TenantMatches(context.Background(), "u"))

	sql, args, err := Builder().Select("u.id").From("users u").
		Where(NotDeleted("u")).
		Where(TenantMatches(context.Background(), "u")).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT u.id FROM users u WHERE u.is_deleted = FALSE", sql)
	assert.Empty(t, args)
}

func TestStampTenant(t *testing.T) {
	var v int64 = 1
	StampTenant(context.Background(), &v)
	assert.Equal(t, int64(1), v)

	StampTenant(tenant.WithTenant(context.Background(), 9), &v)
	assert.Equal(t, int64(9), v)
}
