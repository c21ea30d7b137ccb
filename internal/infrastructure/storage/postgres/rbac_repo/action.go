package rbac_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/domain/actions"
	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/infrastructure/storage/postgres"
)

const actionsTable = "actions"

var (
	actionColumns    = postgres.ExtractDBColumns[rbac.Action]()
	actionInsertCols = postgres.Without(actionColumns, "id")
	actionUpdateCols = postgres.Without(actionColumns, "id", "created_at", "created_by")
)

const actionOrder = "a.display_order, a.id"

// ActionRepo implements actions.Repository.
type ActionRepo struct {
	tx *postgres.TxManager
}

func NewActionRepo(txManager *postgres.TxManager) *ActionRepo {
	return &ActionRepo{tx: txManager}
}

var _ actions.Repository = (*ActionRepo)(nil)

func liveActions() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(liveActionColumns()...).
		From("actions a").
		Where(postgres.NotDeleted("a"))
}

func (r *ActionRepo) GetByID(ctx context.Context, actionID int64) (*rbac.Action, error) {
	return postgres.Get[rbac.Action](ctx, r.tx, liveActions().Where(squirrel.Eq{"a.id": actionID}), "action", actionID)
}

// GetByCode is used by seeding to resolve catalog references.
func (r *ActionRepo) GetByCode(ctx context.Context, code string) (*rbac.Action, error) {
	return postgres.Get[rbac.Action](ctx, r.tx, liveActions().Where(squirrel.Eq{"a.code": code}), "action", code)
}

func (r *ActionRepo) ListActive(ctx context.Context) ([]rbac.Action, error) {
	q := liveActions().Where(squirrel.Eq{"a.is_active": true}).OrderBy(actionOrder)
	return postgres.Select[rbac.Action](ctx, r.tx, q, "action")
}

// ListQuery builds the filtered action listing.
func (r *ActionRepo) ListQuery(f actions.Filter) squirrel.SelectBuilder {
	q := liveActions()
	if f.Search != "" {
		q = q.Where(postgres.Search(f.Search, "a.name_ar", "a.name_en", "a.code"))
	}
	if f.IsActive != nil {
		q = q.Where(squirrel.Eq{"a.is_active": *f.IsActive})
	}
	return q.OrderBy(actionOrder)
}

func (r *ActionRepo) ListPaged(ctx context.Context, f actions.Filter) ([]rbac.Action, int64, error) {
	q := r.ListQuery(f)
	total, err := postgres.Count(ctx, r.tx, q)
	if err != nil {
		return nil, 0, err
	}
	items, err := postgres.Select[rbac.Action](ctx, r.tx, q.Limit(f.Limit()).Offset(f.Offset()), "action")
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ActionRepo) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	return postgres.Exists(ctx, r.tx, existsQuery(actionsTable, "code", code, excludeID))
}

func (r *ActionRepo) Create(ctx context.Context, a *rbac.Action) error {
	newID, err := postgres.Insert(ctx, r.tx, actionsTable, a, actionInsertCols)
	if err != nil {
		return err
	}
	a.ID = newID
	return nil
}

func (r *ActionRepo) Update(ctx context.Context, a *rbac.Action) error {
	return postgres.Update(ctx, r.tx, actionsTable, "action", a.ID, a, actionUpdateCols)
}

func (r *ActionRepo) InUse(ctx context.Context, actionID int64) (bool, error) {
	q := postgres.Builder().Select("1").From("page_actions pa").
		Join("pages pg ON pg.id = pa.page_id").
		Where(squirrel.Eq{"pa.action_id": actionID}).
		Where(postgres.NotDeleted("pg"))
	return postgres.Exists(ctx, r.tx, q)
}
