// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"strings"
)

// UserContext contains authenticated user information decoded from the access token.
// Permissions is the advisory claim copy; authorization decisions re-query the store.
type UserContext struct {
	UserID      int64
	Username    string
	Email       string
	FullName    string
	TenantID    *int64
	Roles       []string
	Permissions []string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns the acting user id, if any.
func GetUserID(ctx context.Context) (int64, bool) {
	if u := GetUser(ctx); u != nil && u.UserID != 0 {
		return u.UserID, true
	}
	return 0, false
}

// GetUserIDPtr returns the acting user id as a nullable column value.
func GetUserIDPtr(ctx context.Context) *int64 {
	if uid, ok := GetUserID(ctx); ok {
		return &uid
	}
	return nil
}

// GetUsername returns the acting username or empty string.
func GetUsername(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.Username
	}
	return ""
}

// HasRole checks if user has specific role (case-insensitive).
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
