package rbac_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/domain/menu"
	"adminpanel/internal/domain/pages"
	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/infrastructure/storage/postgres"
)

const pagesTable = "pages"

var (
	pageColumns    = postgres.ExtractDBColumns[rbac.Page]()
	pageInsertCols = postgres.Without(pageColumns, "id")
	pageUpdateCols = postgres.Without(pageColumns, "id", "created_at", "created_by")
)

// PageRepo implements pages.Repository and menu.PageSource.
type PageRepo struct {
	tx *postgres.TxManager
}

func NewPageRepo(txManager *postgres.TxManager) *PageRepo {
	return &PageRepo{tx: txManager}
}

var (
	_ pages.Repository = (*PageRepo)(nil)
	_ menu.PageSource  = (*PageRepo)(nil)
)

const pageOrder = "pg.display_order, pg.id"

func livePages() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(postgres.Columns("pg", pageColumns)...).
		From("pages pg").
		Where(postgres.NotDeleted("pg"))
}

func (r *PageRepo) GetByID(ctx context.Context, pageID int64) (*rbac.Page, error) {
	return postgres.Get[rbac.Page](ctx, r.tx, livePages().Where(squirrel.Eq{"pg.id": pageID}), "page", pageID)
}

// ListQuery builds the filtered page listing with parent name and counts.
func (r *PageRepo) ListQuery(f pages.Filter) squirrel.SelectBuilder {
	q := livePages().
		Column("parent.name_ar AS parent_name_ar").
		Column("(SELECT COUNT(*) FROM page_actions pa WHERE pa.page_id = pg.id AND pa.is_active) AS actions_count").
		Column("(SELECT COUNT(*) FROM pages c WHERE c.parent_id = pg.id AND c.is_deleted = FALSE) AS children_count").
		LeftJoin("pages parent ON parent.id = pg.parent_id AND parent.is_deleted = FALSE")
	if f.Search != "" {
		q = q.Where(postgres.Search(f.Search, "pg.name_ar", "pg.name_en", "pg.url"))
	}
	if f.IsActive != nil {
		q = q.Where(squirrel.Eq{"pg.is_active": *f.IsActive})
	}
	if f.IsInMenu != nil {
		q = q.Where(squirrel.Eq{"pg.is_in_menu": *f.IsInMenu})
	}
	if f.ParentID != nil {
		q = q.Where(squirrel.Eq{"pg.parent_id": *f.ParentID})
	}
	return q.OrderBy(pageOrder)
}

func (r *PageRepo) ListPaged(ctx context.Context, f pages.Filter) ([]pages.ListItem, int64, error) {
	q := r.ListQuery(f)
	total, err := postgres.Count(ctx, r.tx, q)
	if err != nil {
		return nil, 0, err
	}
	items, err := postgres.Select[pages.ListItem](ctx, r.tx, q.Limit(f.Limit()).Offset(f.Offset()), "page")
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PageRepo) ListAll(ctx context.Context) ([]rbac.Page, error) {
	return postgres.Select[rbac.Page](ctx, r.tx, livePages().OrderBy(pageOrder), "page")
}

func (r *PageRepo) ListMenuPages(ctx context.Context) ([]rbac.Page, error) {
	q := livePages().
		Where(squirrel.Eq{"pg.is_active": true, "pg.is_in_menu": true}).
		OrderBy(pageOrder)
	return postgres.Select[rbac.Page](ctx, r.tx, q, "page")
}

func (r *PageRepo) ExistsByURL(ctx context.Context, url string, excludeID int64) (bool, error) {
	return postgres.Exists(ctx, r.tx, existsQuery(pagesTable, "url", url, excludeID))
}

func (r *PageRepo) Create(ctx context.Context, p *rbac.Page) error {
	newID, err := postgres.Insert(ctx, r.tx, pagesTable, p, pageInsertCols)
	if err != nil {
		return err
	}
	p.ID = newID
	return nil
}

func (r *PageRepo) Update(ctx context.Context, p *rbac.Page) error {
	return postgres.Update(ctx, r.tx, pagesTable, "page", p.ID, p, pageUpdateCols)
}

func (r *PageRepo) HasChildren(ctx context.Context, pageID int64) (bool, error) {
	q := postgres.Builder().Select("1").From(pagesTable).
		Where(squirrel.Eq{"parent_id": pageID}).
		Where(postgres.NotDeleted(""))
	return postgres.Exists(ctx, r.tx, q)
}

func liveActionColumns() []string {
	return postgres.Columns("a", actionColumns)
}

func (r *PageRepo) Actions(ctx context.Context, pageID int64) ([]rbac.Action, error) {
	q := postgres.Builder().
		Select(liveActionColumns()...).
		From("page_actions pa").
		Join("actions a ON a.id = pa.action_id").
		Where(squirrel.Eq{"pa.page_id": pageID, "pa.is_active": true, "a.is_active": true}).
		Where(postgres.NotDeleted("a")).
		OrderBy(actionOrder)
	return postgres.Select[rbac.Action](ctx, r.tx, q, "page action")
}

// ActionsWithAssignmentQuery lists active actions flagged with whether pageID offers them.
func ActionsWithAssignmentQuery(pageID int64) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(append(liveActionColumns(), "(pa.id IS NOT NULL) AS is_assigned")...).
		From("actions a").
		LeftJoin("page_actions pa ON pa.action_id = a.id AND pa.page_id = ? AND pa.is_active", pageID).
		Where(postgres.NotDeleted("a")).
		Where(squirrel.Eq{"a.is_active": true}).
		OrderBy(actionOrder)
}

func (r *PageRepo) ActionsWithAssignment(ctx context.Context, pageID int64) ([]rbac.ActionAssignment, error) {
	return postgres.Select[rbac.ActionAssignment](ctx, r.tx, ActionsWithAssignmentQuery(pageID), "action")
}

// ReplaceActionsQueries builds the statements that make actionIDs the page's
// action set. Rows for kept actions survive, so their role grants do too;
// grants on removed page actions go through ON DELETE CASCADE.
func ReplaceActionsQueries(pageID int64, actionIDs []int64) []squirrel.Sqlizer {
	del := postgres.Builder().Delete("page_actions").Where(squirrel.Eq{"page_id": pageID})
	if len(actionIDs) == 0 {
		return []squirrel.Sqlizer{del}
	}
	del = del.Where(squirrel.NotEq{"action_id": actionIDs})

	ins := postgres.Builder().Insert("page_actions").Columns("page_id", "action_id", "is_active")
	for _, actionID := range actionIDs {
		ins = ins.Values(pageID, actionID, true)
	}
	ins = ins.Suffix("ON CONFLICT (page_id, action_id) DO UPDATE SET is_active = TRUE")
	return []squirrel.Sqlizer{del, ins}
}

func (r *PageRepo) ReplaceActions(ctx context.Context, pageID int64, actionIDs []int64) error {
	for _, q := range ReplaceActionsQueries(pageID, actionIDs) {
		if _, err := postgres.Exec(ctx, r.tx, q, "page action"); err != nil {
			return err
		}
	}
	return nil
}
