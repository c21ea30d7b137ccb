// Package entity holds the audit and soft-delete columns shared by all entities.
package entity

import (
	"context"
	"time"

	appctx "adminpanel/internal/core/context"
	"adminpanel/internal/core/tenant"
)

// BaseEntity contains the identity, audit and soft-delete columns.
// Soft-deleted rows are never removed; default queries exclude them.
type BaseEntity struct {
	ID        int64      `db:"id" json:"id"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	CreatedBy *int64     `db:"created_by" json:"createdBy,omitempty"`
	UpdatedAt *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
	UpdatedBy *int64     `db:"updated_by" json:"updatedBy,omitempty"`
	IsDeleted bool       `db:"is_deleted" json:"-"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
	DeletedBy *int64     `db:"deleted_by" json:"-"`
}

// StampCreated fills the creation columns from the acting user.
func (b *BaseEntity) StampCreated(ctx context.Context, now time.Time) {
	b.CreatedAt = now
	b.CreatedBy = appctx.GetUserIDPtr(ctx)
}

// StampUpdated fills the modification columns from the acting user.
func (b *BaseEntity) StampUpdated(ctx context.Context, now time.Time) {
	b.UpdatedAt = &now
	b.UpdatedBy = appctx.GetUserIDPtr(ctx)
}

// MarkDeleted soft-deletes the entity.
func (b *BaseEntity) MarkDeleted(ctx context.Context, now time.Time) {
	b.IsDeleted = true
	b.DeletedAt = &now
	b.DeletedBy = appctx.GetUserIDPtr(ctx)
}

// TenantEntity is a BaseEntity owned by a tenant.
type TenantEntity struct {
	BaseEntity
	TenantID int64 `db:"tenant_id" json:"tenantId"`
}

// StampTenant assigns the scope tenant on insert. An explicit TenantID set by
// the caller is kept when the context is unscoped.
func (t *TenantEntity) StampTenant(ctx context.Context) {
	if id, ok := tenant.GetTenantID(ctx); ok {
		t.TenantID = id
	}
}
