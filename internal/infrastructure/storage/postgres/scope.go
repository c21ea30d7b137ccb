package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/core/tenant"
)

func qualify(alias, col string) string {
	if alias == "" {
		return col
	}
	return alias + "." + col
}

// NotDeleted excludes soft-deleted rows of alias.
func NotDeleted(alias string) squirrel.Sqlizer {
	return squirrel.Expr(qualify(alias, "is_deleted") + " = FALSE")
}

// TenantMatches restricts alias to the scope tenant plus rows without a
// tenant. It returns nil for an unscoped context; squirrel's Where ignores a
// nil predicate, so unscoped callers see every tenant.
func TenantMatches(ctx context.Context, alias string) squirrel.Sqlizer {
	tenantID, ok := tenant.GetTenantID(ctx)
	if !ok {
		return nil
	}
	col := qualify(alias, "tenant_id")
	return squirrel.Or{
		squirrel.Eq{col: nil},
		squirrel.Eq{col: tenantID},
	}
}

// StampTenant sets *dst to the scope tenant, if any.
func StampTenant(ctx context.Context, dst *int64) {
	if tenantID, ok := tenant.GetTenantID(ctx); ok {
		*dst = tenantID
	}
}
