// Package tenant_repo provides the PostgreSQL tenant repository.
package tenant_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/domain/tenants"
	"adminpanel/internal/infrastructure/storage/postgres"
)

const tenantsTable = "tenants"

var (
	tenantColumns    = postgres.ExtractDBColumns[tenants.Tenant]()
	tenantInsertCols = postgres.Without(tenantColumns, "id")
	tenantUpdateCols = postgres.Without(tenantColumns, "id", "created_at", "created_by")
)

// TenantRepo implements tenants.Repository.
type TenantRepo struct {
	tx *postgres.TxManager
}

func NewTenantRepo(txManager *postgres.TxManager) *TenantRepo {
	return &TenantRepo{tx: txManager}
}

var _ tenants.Repository = (*TenantRepo)(nil)

func liveTenants() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(postgres.Columns("t", tenantColumns)...).
		From("tenants t").
		Where(postgres.NotDeleted("t"))
}

func (r *TenantRepo) GetByID(ctx context.Context, tenantID int64) (*tenants.Tenant, error) {
	return postgres.Get[tenants.Tenant](ctx, r.tx, liveTenants().Where(squirrel.Eq{"t.id": tenantID}), "tenant", tenantID)
}

func (r *TenantRepo) List(ctx context.Context) ([]tenants.Tenant, error) {
	return postgres.Select[tenants.Tenant](ctx, r.tx, liveTenants().OrderBy("t.name"), "tenant")
}

// ExistsByNameQuery matches names case-insensitively among live tenants.
func ExistsByNameQuery(name string, excludeID int64) squirrel.SelectBuilder {
	q := postgres.Builder().Select("1").From(tenantsTable).
		Where("LOWER(name) = LOWER(?)", name).
		Where(postgres.NotDeleted(""))
	if excludeID > 0 {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}
	return q
}

func (r *TenantRepo) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	return postgres.Exists(ctx, r.tx, ExistsByNameQuery(name, excludeID))
}

func (r *TenantRepo) Create(ctx context.Context, t *tenants.Tenant) error {
	newID, err := postgres.Insert(ctx, r.tx, tenantsTable, t, tenantInsertCols)
	if err != nil {
		return err
	}
	t.ID = newID
	return nil
}

func (r *TenantRepo) Update(ctx context.Context, t *tenants.Tenant) error {
	return postgres.Update(ctx, r.tx, tenantsTable, "tenant", t.ID, t, tenantUpdateCols)
}
