package main

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"adminpanel/internal/domain/rbac"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Grant scopes for seeded roles.
const (
	GrantAll  = "all"
	GrantView = "view"
)

// Catalog is the baseline data every installation starts with.
type Catalog struct {
	Tenant      TenantSeed       `yaml:"tenant"`
	Roles       []RoleSeed       `yaml:"roles"`
	Admin       AdminSeed        `yaml:"admin"`
	Permissions []PermissionSeed `yaml:"permissions"`
	Actions     []ActionSeed     `yaml:"actions"`
	Pages       []PageSeed       `yaml:"pages"`
}

type TenantSeed struct {
	Name string `yaml:"name"`
}

type RoleSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Grants      string `yaml:"grants"`
}

type AdminSeed struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"fullName"`
	Role     string `yaml:"role"`
}

// PermissionSeed expands to one permission per action, coded Module.Action.
type PermissionSeed struct {
	Module  string             `yaml:"module"`
	Actions []PermissionAction `yaml:"actions"`
}

type PermissionAction struct {
	Action string `yaml:"action"`
	NameAr string `yaml:"nameAr"`
}

type ActionSeed struct {
	Code   string `yaml:"code"`
	NameAr string `yaml:"nameAr"`
	NameEn string `yaml:"nameEn"`
	Icon   string `yaml:"icon"`
}

type PageSeed struct {
	URL     string   `yaml:"url"`
	Parent  string   `yaml:"parent"`
	NameAr  string   `yaml:"nameAr"`
	NameEn  string   `yaml:"nameEn"`
	Icon    string   `yaml:"icon"`
	InMenu  *bool    `yaml:"inMenu"`
	Actions []string `yaml:"actions"`
}

// Permission is a fully expanded permission row.
type Permission struct {
	Module string
	Action string
	Code   string
	NameAr string
	NameEn string
	Order  int
}

// LoadCatalog parses and validates a YAML catalog.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks cross references. Pages must list parents before children.
func (c *Catalog) Validate() error {
	var errs []error

	if c.Tenant.Name == "" {
		errs = append(errs, errors.New("tenant name is required"))
	}

	roles := make(map[string]bool, len(c.Roles))
	for _, r := range c.Roles {
		if r.Grants != GrantAll && r.Grants != GrantView {
			errs = append(errs, fmt.Errorf("role %q: unknown grants %q", r.Name, r.Grants))
		}
		roles[r.Name] = true
	}
	if !roles[c.Admin.Role] {
		errs = append(errs, fmt.Errorf("admin role %q is not seeded", c.Admin.Role))
	}

	codes := make(map[string]bool)
	for _, p := range c.Permissions {
		for _, a := range p.Actions {
			code := p.Module + "." + a.Action
			if codes[code] {
				errs = append(errs, fmt.Errorf("duplicate permission %s", code))
			}
			codes[code] = true
		}
	}

	actions := make(map[string]bool, len(c.Actions))
	for _, a := range c.Actions {
		if actions[a.Code] {
			errs = append(errs, fmt.Errorf("duplicate action %s", a.Code))
		}
		actions[a.Code] = true
	}

	seen := make(map[string]bool, len(c.Pages))
	for _, p := range c.Pages {
		if seen[p.URL] {
			errs = append(errs, fmt.Errorf("duplicate page %s", p.URL))
		}
		if p.Parent != "" && !seen[p.Parent] {
			errs = append(errs, fmt.Errorf("page %s: parent %s must be listed first", p.URL, p.Parent))
		}
		seen[p.URL] = true
		for _, a := range p.Actions {
			if !actions[a] {
				errs = append(errs, fmt.Errorf("page %s: unknown action %s", p.URL, a))
			}
		}
	}

	return errors.Join(errs...)
}

// ExpandPermissions flattens the module list into permission rows with
// localized display names.
func (c *Catalog) ExpandPermissions() []Permission {
	var out []Permission
	for _, p := range c.Permissions {
		modAr, modEn := rbac.ModuleDisplayName(p.Module)
		for _, a := range p.Actions {
			nameAr := a.NameAr
			if nameAr == "" {
				nameAr = modAr + " - " + a.Action
			}
			out = append(out, Permission{
				Module: p.Module,
				Action: a.Action,
				Code:   p.Module + "." + a.Action,
				NameAr: nameAr,
				NameEn: splitWords(a.Action) + " " + modEn,
				Order:  len(out) + 1,
			})
		}
	}
	return out
}

// Granted reports whether a role with the given grant scope receives a
// permission or page action identified by its action part.
func Granted(scope, action string) bool {
	switch scope {
	case GrantAll:
		return true
	case GrantView:
		return strings.EqualFold(action, GrantView)
	}
	return false
}

// splitWords turns ResetPassword into "Reset Password".
func splitWords(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
