// Package auth_repo provides the PostgreSQL user and grant repositories.
package auth_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/domain/auth"
	"adminpanel/internal/domain/users"
	"adminpanel/internal/infrastructure/storage/postgres"
)

const usersTable = "users"

var (
	userColumns    = postgres.ExtractDBColumns[auth.User]()
	userInsertCols = postgres.Without(userColumns, "id")
	userUpdateCols = postgres.Without(userColumns, "id", "created_at", "created_by", "tenant_id")
)

// UserRepo implements auth.UserRepository and users.Repository.
type UserRepo struct {
	tx  *postgres.TxManager
	now func() time.Time
}

func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{tx: txManager, now: func() time.Time { return time.Now().UTC() }}
}

var (
	_ auth.UserRepository = (*UserRepo)(nil)
	_ users.Repository    = (*UserRepo)(nil)
)

// scoped selects live users visible in the caller's tenant scope.
func (r *UserRepo) scoped(ctx context.Context) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(postgres.Columns("u", userColumns)...).
		From("users u").
		Where(postgres.NotDeleted("u")).
		Where(postgres.TenantMatches(ctx, "u"))
}

func (r *UserRepo) get(ctx context.Context, q squirrel.SelectBuilder, key any) (*auth.User, error) {
	return postgres.Get[auth.User](ctx, r.tx, q.Limit(1), "user", key)
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (*auth.User, error) {
	return r.get(ctx, r.scoped(ctx).Where(squirrel.Eq{"u.id": userID}), userID)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.get(ctx, r.scoped(ctx).Where(squirrel.Eq{"u.username": username}), username)
}

func (r *UserRepo) GetByUsernameForUpdate(ctx context.Context, username string) (*auth.User, error) {
	return r.get(ctx, r.scoped(ctx).Where(squirrel.Eq{"u.username": username}).Suffix("FOR UPDATE"), username)
}

func (r *UserRepo) GetByRefreshTokenForUpdate(ctx context.Context, digest string) (*auth.User, error) {
	return r.get(ctx, r.scoped(ctx).Where(squirrel.Eq{"u.refresh_token": digest}).Suffix("FOR UPDATE"), "refresh token")
}

func (r *UserRepo) GetByEmailForUpdate(ctx context.Context, email string) (*auth.User, error) {
	return r.get(ctx, r.scoped(ctx).Where(squirrel.Eq{"u.email": email}).Suffix("FOR UPDATE"), email)
}

// ListQuery builds the filtered, paged user listing.
func (r *UserRepo) ListQuery(ctx context.Context, f users.Filter) squirrel.SelectBuilder {
	q := r.scoped(ctx)
	if f.Search != "" {
		q = q.Where(postgres.Search(f.Search, "u.username", "u.email", "u.full_name"))
	}
	if f.IsActive != nil {
		q = q.Where(squirrel.Eq{"u.is_active": *f.IsActive})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"u.created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"u.created_at": f.To.AddDate(0, 0, 1)})
	}
	if f.RoleID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = u.id AND ur.role_id = ?)", *f.RoleID)
	}
	return q.OrderBy("u.id DESC")
}

func (r *UserRepo) ListPaged(ctx context.Context, f users.Filter) ([]auth.User, int64, error) {
	q := r.ListQuery(ctx, f)
	total, err := postgres.Count(ctx, r.tx, q)
	if err != nil {
		return nil, 0, err
	}
	items, err := postgres.Select[auth.User](ctx, r.tx, q.Limit(f.Limit()).Offset(f.Offset()), "user")
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// existsQuery spans all tenants: usernames and emails are globally unique.
func existsQuery(column, value string, excludeID int64) squirrel.SelectBuilder {
	q := postgres.Builder().Select("1").From(usersTable).
		Where(squirrel.Eq{column: value}).
		Where(postgres.NotDeleted(""))
	if excludeID > 0 {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}
	return q
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	return postgres.Exists(ctx, r.tx, existsQuery("username", username, excludeID))
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return postgres.Exists(ctx, r.tx, existsQuery("email", email, excludeID))
}

func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	if u.TenantID == 0 {
		postgres.StampTenant(ctx, &u.TenantID)
	}
	newID, err := postgres.Insert(ctx, r.tx, usersTable, u, userInsertCols)
	if err != nil {
		return err
	}
	u.ID = newID
	return nil
}

// Update writes every mutable column, including the soft-delete marks.
func (r *UserRepo) Update(ctx context.Context, u *auth.User) error {
	return postgres.Update(ctx, r.tx, usersTable, "user", u.ID, u, userUpdateCols)
}

func liveRoles(q squirrel.SelectBuilder) squirrel.SelectBuilder {
	return q.From("user_roles ur").
		Join("roles r ON r.id = ur.role_id").
		Where(postgres.NotDeleted("r")).
		Where(squirrel.Eq{"r.is_active": true})
}

func (r *UserRepo) RoleNames(ctx context.Context, userID int64) ([]string, error) {
	q := liveRoles(postgres.Builder().Select("r.name")).
		Where(squirrel.Eq{"ur.user_id": userID}).
		OrderBy("r.name")
	return postgres.Select[string](ctx, r.tx, q, "user role")
}

type userRoleName struct {
	UserID int64  `db:"user_id"`
	Name   string `db:"name"`
}

func (r *UserRepo) RoleNamesByUser(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	q := liveRoles(postgres.Builder().Select("ur.user_id", "r.name")).
		Where(squirrel.Eq{"ur.user_id": userIDs}).
		OrderBy("ur.user_id", "r.name")
	rows, err := postgres.Select[userRoleName](ctx, r.tx, q, "user role")
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.Name)
	}
	return out, nil
}

func (r *UserRepo) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return postgres.ReplaceSet(ctx, r.tx, postgres.SetReplace{
		Table:       "user_roles",
		OwnerColumn: "user_id",
		OwnerID:     userID,
		Columns:     []string{"user_id", "role_id", "assigned_at"},
		Rows:        postgres.OwnedRows(userID, roleIDs, r.now()),
	})
}

// ExpiredTokenQueries clears refresh and reset tokens that expired before now.
// Confirmation tokens never expire and are left alone.
func ExpiredTokenQueries(now time.Time) []squirrel.Sqlizer {
	return []squirrel.Sqlizer{
		postgres.Builder().Update(usersTable).
			Set("refresh_token", nil).
			Set("refresh_token_expiry", nil).
			Where(squirrel.Lt{"refresh_token_expiry": now}),
		postgres.Builder().Update(usersTable).
			Set("password_reset_token", nil).
			Set("password_reset_token_expiry", nil).
			Where(squirrel.Lt{"password_reset_token_expiry": now}),
	}
}

// PurgeExpiredTokens clears expired refresh and reset tokens across all
// tenants and returns the number of rows touched.
func (r *UserRepo) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := r.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, q := range ExpiredTokenQueries(now) {
			n, err := postgres.Exec(ctx, r.tx, q, "user token")
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}
