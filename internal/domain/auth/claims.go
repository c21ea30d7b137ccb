package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	appctx "adminpanel/internal/core/context"
	"adminpanel/internal/core/id"
)

// SessionClaims is the access token payload.
//
// Permissions is advisory: the UI reads it to hide controls, but API
// authorization always re-queries the store.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID      int64    `json:"uid"`
	Username    string   `json:"name"`
	Email       string   `json:"email"`
	FullName    string   `json:"fullName"`
	TenantID    int64    `json:"tenantId"`
	Roles       []string `json:"role"`
	Permissions string   `json:"permissions"`
}

// BuildSessionClaims assembles the claim set for u. It is the only place
// claims are built; login and refresh both go through it.
func BuildSessionClaims(u *User, roles, permissions []string) SessionClaims {
	if roles == nil {
		roles = []string{}
	}
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: id.Format(u.ID),
		},
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		TenantID:    u.TenantID,
		Roles:       roles,
		Permissions: strings.Join(permissions, ","),
	}
}

// PermissionList splits the comma-joined permission claim.
func (c *SessionClaims) PermissionList() []string {
	if c.Permissions == "" {
		return []string{}
	}
	return strings.Split(c.Permissions, ",")
}

// UserContext converts the claims into the request user.
func (c *SessionClaims) UserContext() *appctx.UserContext {
	tenantID := c.TenantID
	return &appctx.UserContext{
		UserID:      c.UserID,
		Username:    c.Username,
		Email:       c.Email,
		FullName:    c.FullName,
		TenantID:    &tenantID,
		Roles:       c.Roles,
		Permissions: c.PermissionList(),
	}
}
