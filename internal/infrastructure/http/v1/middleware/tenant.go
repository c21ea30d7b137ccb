package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/core/apperror"
	appctx "adminpanel/internal/core/context"
	"adminpanel/internal/core/tenant"
	"adminpanel/internal/domain/tenants"
	"adminpanel/pkg/logger"
)

const (
	// TenantHeader is the HTTP header for tenant identification on anonymous routes.
	TenantHeader = "X-Tenant-ID"
)

// TenantResolver validates a tenant for use. *tenants.Service implements it.
type TenantResolver interface {
	Resolve(ctx context.Context, tenantID int64) (*tenants.Tenant, error)
}

// Tenant attaches the request's tenant scope. An authenticated request uses
// the token's tenant claim and ignores the header; an anonymous one uses
// X-Tenant-ID when sent. Without either the request stays unscoped.
//
// It must run after Auth on protected routes.
func Tenant(resolver TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tenantID, ok, err := requestTenant(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if !ok {
			c.Next()
			return
		}

		if _, err := resolver.Resolve(ctx, tenantID); err != nil {
			logger.Warn(ctx, "tenant rejected", "tenant_id", tenantID, "error", err)
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(tenant.WithTenant(ctx, tenantID))
		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

func requestTenant(c *gin.Context) (int64, bool, error) {
	if user := appctx.GetUser(c.Request.Context()); user != nil {
		if user.TenantID == nil {
			return 0, false, nil
		}
		return *user.TenantID, true, nil
	}

	raw := c.GetHeader(TenantHeader)
	if raw == "" {
		return 0, false, nil
	}
	tenantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tenantID <= 0 {
		return 0, false, apperror.NewValidation("invalid tenant id").
			WithDetail("header", TenantHeader).
			WithDetail("value", raw)
	}
	return tenantID, true, nil
}
