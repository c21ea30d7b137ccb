package rbac_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/domain/permissions"
	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/infrastructure/storage/postgres"
)

const permissionsTable = "permissions"

var (
	permissionColumns    = postgres.ExtractDBColumns[rbac.Permission]()
	permissionInsertCols = postgres.Without(permissionColumns, "id")
	permissionUpdateCols = postgres.Without(permissionColumns, "id", "created_at", "created_by", "module", "action", "code")
)

// PermissionRepo implements permissions.Repository.
type PermissionRepo struct {
	tx *postgres.TxManager
}

func NewPermissionRepo(txManager *postgres.TxManager) *PermissionRepo {
	return &PermissionRepo{tx: txManager}
}

var _ permissions.Repository = (*PermissionRepo)(nil)

func livePermissions() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(postgres.Columns("p", permissionColumns)...).
		From("permissions p").
		Where(postgres.NotDeleted("p"))
}

const permissionOrder = "p.module, p.display_order, p.id"

func (r *PermissionRepo) ListActive(ctx context.Context) ([]rbac.Permission, error) {
	q := livePermissions().Where(squirrel.Eq{"p.is_active": true}).OrderBy(permissionOrder)
	return postgres.Select[rbac.Permission](ctx, r.tx, q, "permission")
}

func (r *PermissionRepo) GetByID(ctx context.Context, permissionID int64) (*rbac.Permission, error) {
	return postgres.Get[rbac.Permission](ctx, r.tx, livePermissions().Where(squirrel.Eq{"p.id": permissionID}), "permission", permissionID)
}

func (r *PermissionRepo) GetByCode(ctx context.Context, code string) (*rbac.Permission, error) {
	return postgres.Get[rbac.Permission](ctx, r.tx, livePermissions().Where(squirrel.Eq{"p.code": code}), "permission", code)
}

// Update writes the presentational columns; the code triple is immutable.
func (r *PermissionRepo) Update(ctx context.Context, p *rbac.Permission) error {
	return postgres.Update(ctx, r.tx, permissionsTable, "permission", p.ID, p, permissionUpdateCols)
}

// Create inserts a catalog permission. Used by seeding.
func (r *PermissionRepo) Create(ctx context.Context, p *rbac.Permission) error {
	newID, err := postgres.Insert(ctx, r.tx, permissionsTable, p, permissionInsertCols)
	if err != nil {
		return err
	}
	p.ID = newID
	return nil
}

// ListForRoleQuery lists active permissions with roleID's grant flag.
func ListForRoleQuery(roleID int64) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(append(postgres.Columns("p", permissionColumns), "COALESCE(rp.is_granted, FALSE) AS is_granted")...).
		From("permissions p").
		LeftJoin("role_permissions rp ON rp.permission_id = p.id AND rp.role_id = ?", roleID).
		Where(postgres.NotDeleted("p")).
		Where(squirrel.Eq{"p.is_active": true}).
		OrderBy(permissionOrder)
}

func (r *PermissionRepo) ListForRole(ctx context.Context, roleID int64) ([]rbac.PermissionAssignment, error) {
	return postgres.Select[rbac.PermissionAssignment](ctx, r.tx, ListForRoleQuery(roleID), "permission")
}
