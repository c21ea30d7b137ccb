package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/core/security"
	"adminpanel/internal/infrastructure/storage/postgres"
	"adminpanel/pkg/logger"
)

// Seeder writes a Catalog. Every step looks up existing rows first, so
// running it again only fills what is missing.
type Seeder struct {
	tx     *postgres.TxManager
	hasher security.PasswordHasher
	log    *logger.Logger
	now    func() time.Time
}

func NewSeeder(tx *postgres.TxManager, hasher security.PasswordHasher, log *logger.Logger) *Seeder {
	return &Seeder{tx: tx, hasher: hasher, log: log, now: time.Now}
}

// Result counts what a run touched.
type Result struct {
	TenantID    int64
	AdminID     int64
	Permissions int
	Actions     int
	Pages       int
	PageActions int
}

// Run seeds the whole catalog in one transaction.
func (s *Seeder) Run(ctx context.Context, c *Catalog) (*Result, error) {
	res := &Result{}
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if res.TenantID, err = s.seedTenant(ctx, c.Tenant); err != nil {
			return err
		}

		perms, err := s.seedPermissions(ctx, c.ExpandPermissions())
		if err != nil {
			return err
		}
		res.Permissions = len(perms)

		actions, err := s.seedActions(ctx, c.Actions)
		if err != nil {
			return err
		}
		res.Actions = len(actions)

		pageActions, pageCount, err := s.seedPages(ctx, c.Pages, actions)
		if err != nil {
			return err
		}
		res.Pages = pageCount
		res.PageActions = len(pageActions)

		roles := make(map[string]int64, len(c.Roles))
		for _, r := range c.Roles {
			roleID, err := s.seedRole(ctx, r, perms, pageActions)
			if err != nil {
				return err
			}
			roles[r.Name] = roleID
		}

		res.AdminID, err = s.seedAdmin(ctx, c.Admin, res.TenantID, roles[c.Admin.Role])
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Seeder) seedTenant(ctx context.Context, t TenantSeed) (int64, error) {
	return s.ensure(ctx, "tenant",
		LookupQuery("tenants", "name", t.Name),
		postgres.Builder().Insert("tenants").
			Columns("name", "is_active", "created_at").
			Values(t.Name, true, s.now()))
}

// seedPermissions returns permission ids keyed by code.
func (s *Seeder) seedPermissions(ctx context.Context, perms []Permission) (map[string]grantable, error) {
	out := make(map[string]grantable, len(perms))
	for _, p := range perms {
		permID, err := s.ensure(ctx, "permission",
			LookupQuery("permissions", "code", p.Code),
			postgres.Builder().Insert("permissions").
				Columns("module", "action", "code", "display_name_ar", "display_name_en", "display_order", "is_active", "created_at").
				Values(p.Module, p.Action, p.Code, p.NameAr, p.NameEn, p.Order, true, s.now()))
		if err != nil {
			return nil, err
		}
		out[p.Code] = grantable{id: permID, action: p.Action}
	}
	s.log.Infow("permissions seeded", "count", len(out))
	return out, nil
}

func (s *Seeder) seedActions(ctx context.Context, actions []ActionSeed) (map[string]int64, error) {
	out := make(map[string]int64, len(actions))
	for i, a := range actions {
		actionID, err := s.ensure(ctx, "action",
			LookupQuery("actions", "code", a.Code),
			postgres.Builder().Insert("actions").
				Columns("name_ar", "name_en", "code", "icon", "display_order", "is_active", "created_at").
				Values(a.NameAr, a.NameEn, a.Code, a.Icon, i+1, true, s.now()))
		if err != nil {
			return nil, err
		}
		out[a.Code] = actionID
	}
	return out, nil
}

// seedPages returns page action ids keyed by "url#action".
func (s *Seeder) seedPages(ctx context.Context, pages []PageSeed, actions map[string]int64) (map[string]grantable, int, error) {
	pageIDs := make(map[string]int64, len(pages))
	out := make(map[string]grantable)

	for i, p := range pages {
		var parentID *int64
		if p.Parent != "" {
			id := pageIDs[p.Parent]
			parentID = &id
		}
		inMenu := p.InMenu == nil || *p.InMenu

		pageID, err := s.ensure(ctx, "page",
			LookupQuery("pages", "url", p.URL),
			postgres.Builder().Insert("pages").
				Columns("name_ar", "name_en", "url", "icon", "parent_id", "display_order", "is_active", "is_in_menu", "created_at").
				Values(p.NameAr, p.NameEn, p.URL, p.Icon, parentID, i+1, true, inMenu, s.now()))
		if err != nil {
			return nil, 0, err
		}
		pageIDs[p.URL] = pageID

		for _, code := range p.Actions {
			paID, err := s.ensure(ctx, "page action",
				PageActionLookupQuery(pageID, actions[code]),
				postgres.Builder().Insert("page_actions").
					Columns("page_id", "action_id", "is_active").
					Values(pageID, actions[code], true))
			if err != nil {
				return nil, 0, err
			}
			out[p.URL+"#"+code] = grantable{id: paID, action: code}
		}
	}
	return out, len(pageIDs), nil
}

func (s *Seeder) seedRole(ctx context.Context, r RoleSeed, perms, pageActions map[string]grantable) (int64, error) {
	roleID, err := s.ensure(ctx, "role",
		LookupQuery("roles", "name", r.Name),
		postgres.Builder().Insert("roles").
			Columns("name", "description", "is_system_role", "is_active", "created_at").
			Values(r.Name, r.Description, true, true, s.now()))
	if err != nil {
		return 0, err
	}

	if permIDs := grantedIDs(r.Grants, perms); len(permIDs) > 0 {
		if _, err := postgres.Exec(ctx, s.tx, GrantQuery("role_permissions", "permission_id", roleID, permIDs), "role permission"); err != nil {
			return 0, err
		}
	}
	if paIDs := grantedIDs(r.Grants, pageActions); len(paIDs) > 0 {
		if _, err := postgres.Exec(ctx, s.tx, GrantQuery("role_page_actions", "page_action_id", roleID, paIDs), "role page action"); err != nil {
			return 0, err
		}
	}

	s.log.Infow("role seeded", "role", r.Name, "role_id", roleID, "grants", r.Grants)
	return roleID, nil
}

func (s *Seeder) seedAdmin(ctx context.Context, a AdminSeed, tenantID, roleID int64) (int64, error) {
	ids, err := postgres.Select[int64](ctx, s.tx, LookupQuery("users", "username", a.Username), "user")
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		s.log.Infow("admin user already exists", "username", a.Username)
		return ids[0], nil
	}

	hash, err := s.hasher.Hash(a.Password)
	if err != nil {
		return 0, fmt.Errorf("hash admin password: %w", err)
	}

	userID, err := s.insertReturningID(ctx, "user",
		postgres.Builder().Insert("users").
			Columns("tenant_id", "username", "email", "password_hash", "full_name", "is_active", "email_confirmed", "created_at").
			Values(tenantID, a.Username, a.Email, hash, a.FullName, true, true, s.now()))
	if err != nil {
		return 0, err
	}

	if _, err := postgres.Exec(ctx, s.tx, UserRoleQuery(userID, roleID, s.now()), "user role"); err != nil {
		return 0, err
	}

	s.log.Infow("admin user created", "username", a.Username, "email", a.Email)
	return userID, nil
}

// ensure returns the id found by lookup, inserting when nothing matches.
func (s *Seeder) ensure(ctx context.Context, entity string, lookup squirrel.SelectBuilder, insert squirrel.InsertBuilder) (int64, error) {
	ids, err := postgres.Select[int64](ctx, s.tx, lookup, entity)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		return ids[0], nil
	}
	return s.insertReturningID(ctx, entity, insert)
}

func (s *Seeder) insertReturningID(ctx context.Context, entity string, insert squirrel.InsertBuilder) (int64, error) {
	sql, args, err := insert.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s insert: %w", entity, err)
	}
	var id int64
	if err := s.tx.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, postgres.MapError(err, entity)
	}
	return id, nil
}

type grantable struct {
	id     int64
	action string
}

func grantedIDs(scope string, items map[string]grantable) []int64 {
	var ids []int64
	for _, it := range items {
		if Granted(scope, it.action) {
			ids = append(ids, it.id)
		}
	}
	return ids
}

// LookupQuery finds a live row by a unique column.
func LookupQuery(table, col string, value any) squirrel.SelectBuilder {
	return postgres.Builder().Select("id").From(table).
		Where(squirrel.Eq{col: value, "is_deleted": false}).
		Limit(1)
}

func PageActionLookupQuery(pageID, actionID int64) squirrel.SelectBuilder {
	return postgres.Builder().Select("id").From("page_actions").
		Where(squirrel.Eq{"page_id": pageID, "action_id": actionID}).
		Limit(1)
}

// GrantQuery inserts granted rows for roleID, leaving existing rows as they are
// so edits made after the first run survive.
func GrantQuery(table, col string, roleID int64, ids []int64) squirrel.InsertBuilder {
	q := postgres.Builder().Insert(table).Columns("role_id", col, "is_granted")
	for _, id := range ids {
		q = q.Values(roleID, id, true)
	}
	return q.Suffix("ON CONFLICT (role_id, " + col + ") DO NOTHING")
}

func UserRoleQuery(userID, roleID int64, now time.Time) squirrel.InsertBuilder {
	return postgres.Builder().Insert("user_roles").
		Columns("user_id", "role_id", "assigned_at").
		Values(userID, roleID, now).
		Suffix("ON CONFLICT (user_id, role_id) DO NOTHING")
}

func (r *Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tenant=%d admin=%d ", r.TenantID, r.AdminID)
	fmt.Fprintf(&b, "permissions=%d actions=%d pages=%d page_actions=%d", r.Permissions, r.Actions, r.Pages, r.PageActions)
	return b.String()
}
