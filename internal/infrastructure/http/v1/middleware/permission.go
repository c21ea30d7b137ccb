// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/core/apperror"
	appctx "adminpanel/internal/core/context"
)

// PermissionChecker answers permission questions against the live grant
// tables. *access.Service implements it.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID int64, code string) (bool, error)
}

// PageActionChecker answers page-action questions. *access.Service implements it.
type PageActionChecker interface {
	HasPageAction(ctx context.Context, userID, pageID int64, actionCode string) (bool, error)
}

// RequirePermission aborts with 403 unless the user currently holds
// permission. Token claims are not consulted: a revoked grant takes effect on
// the next request.
func RequirePermission(checker PermissionChecker, permission string) gin.HandlerFunc {
	return RequireAnyPermission(checker, permission)
}

// RequireAnyPermission passes if the user holds any of permissions.
func RequireAnyPermission(checker PermissionChecker, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		for _, required := range permissions {
			granted, err := checker.HasPermission(ctx, userID, required)
			if err != nil {
				_ = c.Error(err)
				c.Abort()
				return
			}
			if granted {
				c.Next()
				return
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permissions", permissions),
		)
		c.Abort()
	}
}

// RequirePageAction aborts with 403 unless the user may perform action on pageID.
func RequirePageAction(checker PageActionChecker, pageID int64, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		granted, err := checker.HasPageAction(c.Request.Context(), userID, pageID, action)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if !granted {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("page_id", pageID).
					WithDetail("action", action),
			)
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) (int64, bool) {
	userID, ok := appctx.GetUserID(c.Request.Context())
	if !ok {
		abortUnauthorized(c, "authentication required")
		return 0, false
	}
	return userID, true
}
