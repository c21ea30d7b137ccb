package auth

import (
	"context"

	"adminpanel/internal/domain/audit"
)

// UserRepository is the user storage used by authentication.
//
// Lookups apply the soft-delete and tenant predicates of the caller's scope
// and return an apperror NotFound when no row matches. The ForUpdate variants
// lock the row until the surrounding transaction ends. Exists checks span all
// tenants because usernames and emails are globally unique.
type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByUsernameForUpdate(ctx context.Context, username string) (*User, error)
	GetByRefreshTokenForUpdate(ctx context.Context, digest string) (*User, error)
	GetByEmailForUpdate(ctx context.Context, email string) (*User, error)

	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)

	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error

	// RoleNames returns the names of the user's active, non-deleted roles.
	RoleNames(ctx context.Context, userID int64) ([]string, error)
	// ReplaceRoles replaces the user's role set.
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
}

// PermissionResolver resolves a user's effective permission codes.
type PermissionResolver interface {
	ResolvePermissionCodes(ctx context.Context, userID int64) ([]string, error)
}

// Mailer queues account emails. Calls made inside a transaction are delivered
// only if it commits.
type Mailer interface {
	SendPasswordReset(ctx context.Context, u *User, token string) error
	SendWelcome(ctx context.Context, u *User) error
	SendEmailConfirmation(ctx context.Context, u *User, token string) error
}

// Recorder receives authentication audit events.
type Recorder interface {
	RecordLogin(ctx context.Context, userID int64, username, ipAddress string)
	RecordLogout(ctx context.Context, userID int64, username string)
	Record(ctx context.Context, entityName string, entityID int64, action audit.Action, oldValues, newValues any)
}
