package tenant

import "errors"

// Tenant resolution errors.
var (
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTenantNotActive     = errors.New("tenant is not active")
	ErrSubscriptionExpired = errors.New("tenant subscription has expired")
)
