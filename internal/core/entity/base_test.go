package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appctx "adminpanel/internal/core/context"
	"adminpanel/internal/core/tenant"
)

func TestStamps_UseActingUser(t *testing.T) {
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: 9})
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var b BaseEntity
	b.StampCreated(ctx, now)
	b.StampUpdated(ctx, now)
	b.MarkDeleted(ctx, now)

	assert.Equal(t, now, b.CreatedAt)
	assert.Equal(t, int64(9), *b.CreatedBy)
	assert.Equal(t, now, *b.UpdatedAt)
	assert.True(t, b.IsDeleted)
	assert.Equal(t, int64(9), *b.DeletedBy)
}

func TestStamps_AnonymousLeavesActorNil(t *testing.T) {
	var b BaseEntity
	b.StampCreated(context.Background(), time.Now())
	assert.Nil(t, b.CreatedBy)
}

func TestStampTenant(t *testing.T) {
	e := TenantEntity{TenantID: 1}
	e.StampTenant(context.Background())
	assert.Equal(t, int64(1), e.TenantID, "unscoped context keeps explicit tenant")

	e.StampTenant(tenant.WithTenant(context.Background(), 4))
	assert.Equal(t, int64(4), e.TenantID)
}
