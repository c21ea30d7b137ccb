// Package rbac_repo provides the PostgreSQL repositories of the authorization
// catalog: roles, permissions, pages and actions.
package rbac_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/domain/permissions"
	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/domain/roles"
	"adminpanel/internal/infrastructure/storage/postgres"
)

const rolesTable = "roles"

var (
	roleColumns    = postgres.ExtractDBColumns[rbac.Role]()
	roleInsertCols = postgres.Without(roleColumns, "id")
	roleUpdateCols = postgres.Without(roleColumns, "id", "created_at", "created_by")
)

// RoleRepo implements roles.Repository and permissions.RoleLookup.
type RoleRepo struct {
	tx *postgres.TxManager
}

func NewRoleRepo(txManager *postgres.TxManager) *RoleRepo {
	return &RoleRepo{tx: txManager}
}

var (
	_ roles.Repository       = (*RoleRepo)(nil)
	_ permissions.RoleLookup = (*RoleRepo)(nil)
)

func liveRoles() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(postgres.Columns("r", roleColumns)...).
		From("roles r").
		Where(postgres.NotDeleted("r"))
}

func (r *RoleRepo) GetByID(ctx context.Context, roleID int64) (*rbac.Role, error) {
	return postgres.Get[rbac.Role](ctx, r.tx, liveRoles().Where(squirrel.Eq{"r.id": roleID}), "role", roleID)
}

func (r *RoleRepo) List(ctx context.Context) ([]rbac.Role, error) {
	return postgres.Select[rbac.Role](ctx, r.tx, liveRoles().OrderBy("r.name"), "role")
}

// ListQuery builds the filtered role listing.
func ListQuery(f roles.Filter) squirrel.SelectBuilder {
	q := liveRoles()
	if f.Search != "" {
		q = q.Where(postgres.Search(f.Search, "r.name", "r.description"))
	}
	if f.IsActive != nil {
		q = q.Where(squirrel.Eq{"r.is_active": *f.IsActive})
	}
	if f.IsSystemRole != nil {
		q = q.Where(squirrel.Eq{"r.is_system_role": *f.IsSystemRole})
	}
	return q.OrderBy("r.name")
}

func (r *RoleRepo) ListPaged(ctx context.Context, f roles.Filter) ([]rbac.Role, int64, error) {
	q := ListQuery(f)
	total, err := postgres.Count(ctx, r.tx, q)
	if err != nil {
		return nil, 0, err
	}
	items, err := postgres.Select[rbac.Role](ctx, r.tx, q.Limit(f.Limit()).Offset(f.Offset()), "role")
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *RoleRepo) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	return postgres.Exists(ctx, r.tx, existsQuery(rolesTable, "name", name, excludeID))
}

func (r *RoleRepo) Create(ctx context.Context, role *rbac.Role) error {
	newID, err := postgres.Insert(ctx, r.tx, rolesTable, role, roleInsertCols)
	if err != nil {
		return err
	}
	role.ID = newID
	return nil
}

func (r *RoleRepo) Update(ctx context.Context, role *rbac.Role) error {
	return postgres.Update(ctx, r.tx, rolesTable, "role", role.ID, role, roleUpdateCols)
}

// CountsQuery counts live users and granted live permissions per role.
func CountsQuery(roleIDs []int64) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(
			"r.id AS role_id",
			"(SELECT COUNT(*) FROM user_roles ur JOIN users u ON u.id = ur.user_id"+
				" WHERE ur.role_id = r.id AND u.is_deleted = FALSE) AS users_count",
			"(SELECT COUNT(*) FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id"+
				" WHERE rp.role_id = r.id AND rp.is_granted AND p.is_deleted = FALSE AND p.is_active) AS permissions_count",
		).
		From("roles r").
		Where(squirrel.Eq{"r.id": roleIDs})
}

func (r *RoleRepo) Counts(ctx context.Context, roleIDs []int64) ([]roles.Counts, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return postgres.Select[roles.Counts](ctx, r.tx, CountsQuery(roleIDs), "role counts")
}

// ReplacePermissions stores one granted row per permission.
func (r *RoleRepo) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return postgres.ReplaceSet(ctx, r.tx, postgres.SetReplace{
		Table:       "role_permissions",
		OwnerColumn: "role_id",
		OwnerID:     roleID,
		Columns:     []string{"role_id", "permission_id", "is_granted"},
		Rows:        postgres.OwnedRows(roleID, permissionIDs, true),
	})
}

func (r *RoleRepo) GrantedPermissions(ctx context.Context, roleID int64) ([]rbac.PermissionAssignment, error) {
	q := postgres.Builder().
		Select(append(postgres.Columns("p", permissionColumns), "rp.is_granted")...).
		From("role_permissions rp").
		Join("permissions p ON p.id = rp.permission_id").
		Where(squirrel.Eq{"rp.role_id": roleID, "rp.is_granted": true, "p.is_active": true}).
		Where(postgres.NotDeleted("p")).
		OrderBy("p.module", "p.display_order", "p.id")
	return postgres.Select[rbac.PermissionAssignment](ctx, r.tx, q, "role permission")
}

// ReplacePageActions stores one granted row per page action.
func (r *RoleRepo) ReplacePageActions(ctx context.Context, roleID int64, pageActionIDs []int64) error {
	return postgres.ReplaceSet(ctx, r.tx, postgres.SetReplace{
		Table:       "role_page_actions",
		OwnerColumn: "role_id",
		OwnerID:     roleID,
		Columns:     []string{"role_id", "page_action_id", "is_granted"},
		Rows:        postgres.OwnedRows(roleID, pageActionIDs, true),
	})
}

// PageActionsQuery lists every live page action with roleID's grant flag.
func PageActionsQuery(roleID int64) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(
			"pa.id AS page_action_id",
			"pg.id AS page_id",
			"pg.name_ar AS page_name_ar",
			"pg.name_en AS page_name_en",
			"a.id AS action_id",
			"a.code AS action_code",
			"a.name_ar AS action_name_ar",
			"a.name_en AS action_name_en",
			"COALESCE(rpa.is_granted, FALSE) AS is_granted",
		).
		From("page_actions pa").
		Join("pages pg ON pg.id = pa.page_id").
		Join("actions a ON a.id = pa.action_id").
		LeftJoin("role_page_actions rpa ON rpa.page_action_id = pa.id AND rpa.role_id = ?", roleID).
		Where(squirrel.Eq{"pa.is_active": true, "pg.is_active": true, "a.is_active": true}).
		Where(postgres.NotDeleted("pg")).
		Where(postgres.NotDeleted("a")).
		OrderBy("pg.display_order", "pg.id", "a.display_order", "a.id")
}

func (r *RoleRepo) PageActions(ctx context.Context, roleID int64) ([]rbac.PageActionAssignment, error) {
	return postgres.Select[rbac.PageActionAssignment](ctx, r.tx, PageActionsQuery(roleID), "role page action")
}

// existsQuery checks a unique column among live rows, optionally excluding one id.
func existsQuery(table, column, value string, excludeID int64) squirrel.SelectBuilder {
	q := postgres.Builder().Select("1").From(table).
		Where(squirrel.Eq{column: value}).
		Where(postgres.NotDeleted(""))
	if excludeID > 0 {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}
	return q
}
