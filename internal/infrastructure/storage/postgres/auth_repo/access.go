package auth_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/domain/access"
	"adminpanel/internal/infrastructure/storage/postgres"
)

// AccessRepo loads grant rows for the permission aggregator.
type AccessRepo struct {
	tx *postgres.TxManager
}

func NewAccessRepo(txManager *postgres.TxManager) *AccessRepo {
	return &AccessRepo{tx: txManager}
}

var _ access.Repository = (*AccessRepo)(nil)

// grantingRoles scopes q to the live roles of a live, active user. A deleted
// or deactivated user holds no grants even while its token is unexpired.
func grantingRoles(ctx context.Context, q squirrel.SelectBuilder, userID int64) squirrel.SelectBuilder {
	return liveRoles(q).
		Join("users u ON u.id = ur.user_id").
		Where(postgres.NotDeleted("u")).
		Where(squirrel.Eq{"u.is_active": true}).
		Where(postgres.TenantMatches(ctx, "u")).
		Where(squirrel.Eq{"ur.user_id": userID})
}

// LiveRoleIDsQuery selects the ids of roles that currently grant to userID.
func LiveRoleIDsQuery(ctx context.Context, userID int64) squirrel.SelectBuilder {
	return grantingRoles(ctx, postgres.Builder().Select("r.id"), userID).OrderBy("r.id")
}

func (r *AccessRepo) LiveRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	return postgres.Select[int64](ctx, r.tx, LiveRoleIDsQuery(ctx, userID), "user role")
}

func livePermission(q squirrel.SelectBuilder) squirrel.SelectBuilder {
	return q.Join("permissions p ON p.id = rp.permission_id").
		Where(postgres.NotDeleted("p")).
		Where(squirrel.Eq{"p.is_active": true})
}

func livePageAction(q squirrel.SelectBuilder) squirrel.SelectBuilder {
	return q.Join("page_actions pa ON pa.id = rpa.page_action_id").
		Join("pages pg ON pg.id = pa.page_id").
		Join("actions a ON a.id = pa.action_id").
		Where(squirrel.Eq{"pa.is_active": true}).
		Where(postgres.NotDeleted("pg")).
		Where(squirrel.Eq{"pg.is_active": true}).
		Where(postgres.NotDeleted("a")).
		Where(squirrel.Eq{"a.is_active": true})
}

// PermissionGrantsQuery selects the permission grant rows of roleIDs.
func PermissionGrantsQuery(roleIDs []int64) squirrel.SelectBuilder {
	return livePermission(postgres.Builder().
		Select("rp.role_id", "p.code", "rp.is_granted").
		From("role_permissions rp")).
		Where(squirrel.Eq{"rp.role_id": roleIDs})
}

func (r *AccessRepo) PermissionGrants(ctx context.Context, roleIDs []int64) ([]access.PermissionGrant, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return postgres.Select[access.PermissionGrant](ctx, r.tx, PermissionGrantsQuery(roleIDs), "permission grant")
}

// PageActionGrantsQuery selects the page action grant rows of roleIDs.
func PageActionGrantsQuery(roleIDs []int64) squirrel.SelectBuilder {
	return livePageAction(postgres.Builder().
		Select("rpa.role_id", "pa.page_id", "a.code AS action_code", "rpa.is_granted").
		From("role_page_actions rpa")).
		Where(squirrel.Eq{"rpa.role_id": roleIDs})
}

func (r *AccessRepo) PageActionGrants(ctx context.Context, roleIDs []int64) ([]access.PageActionGrant, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return postgres.Select[access.PageActionGrant](ctx, r.tx, PageActionGrantsQuery(roleIDs), "page action grant")
}

// HasPermissionQuery selects a row when any live role of userID grants code.
func HasPermissionQuery(ctx context.Context, userID int64, code string) squirrel.SelectBuilder {
	q := grantingRoles(ctx, postgres.Builder().Select("1"), userID).
		Join("role_permissions rp ON rp.role_id = r.id")
	return livePermission(q).
		Where(squirrel.Eq{"p.code": code, "rp.is_granted": true})
}

func (r *AccessRepo) HasPermission(ctx context.Context, userID int64, code string) (bool, error) {
	return postgres.Exists(ctx, r.tx, HasPermissionQuery(ctx, userID, code))
}

// HasPageActionQuery selects a row when any live role of userID grants
// actionCode on pageID.
func HasPageActionQuery(ctx context.Context, userID, pageID int64, actionCode string) squirrel.SelectBuilder {
	q := grantingRoles(ctx, postgres.Builder().Select("1"), userID).
		Join("role_page_actions rpa ON rpa.role_id = r.id")
	return livePageAction(q).
		Where(squirrel.Eq{"pa.page_id": pageID, "rpa.is_granted": true}).
		Where("LOWER(a.code) = ?", actionCode)
}

func (r *AccessRepo) HasPageAction(ctx context.Context, userID, pageID int64, actionCode string) (bool, error) {
	return postgres.Exists(ctx, r.tx, HasPageActionQuery(ctx, userID, pageID, actionCode))
}
