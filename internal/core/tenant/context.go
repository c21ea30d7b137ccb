// Package tenant carries the request's tenant scope.
//
// The scope is attached once per request and read by the persistence layer to
// build tenant predicates. A context without a tenant is the superuser or
// background scope: tenant-scoped rows of every tenant are visible.
package tenant

import (
	"context"
)

type tenantKey struct{}

// WithTenant returns a child context scoped to tenantID.
func WithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// GetTenantID returns the tenant of the current scope.
// ok is false for the unscoped (superuser/background) context.
func GetTenantID(ctx context.Context) (id int64, ok bool) {
	id, ok = ctx.Value(tenantKey{}).(int64)
	return id, ok
}

// GetTenantIDPtr returns the scope tenant as a nullable column value.
func GetTenantIDPtr(ctx context.Context) *int64 {
	if id, ok := GetTenantID(ctx); ok {
		return &id
	}
	return nil
}
