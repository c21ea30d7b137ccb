// Package rbac holds the authorization catalog: roles, permissions, pages,
// actions and the grant rows that connect them.
package rbac

import (
	"strings"
	"time"

	"adminpanel/internal/core/entity"
)

// ViewActionCode is the action that makes a page visible in the menu.
const ViewActionCode = "view"

// Role groups permissions and page actions. System roles are immutable.
type Role struct {
	entity.BaseEntity
	Name         string  `db:"name" json:"name"`
	Description  *string `db:"description" json:"description,omitempty"`
	IsSystemRole bool    `db:"is_system_role" json:"isSystemRole"`
	IsActive     bool    `db:"is_active" json:"isActive"`

	UsersCount       int `db:"-" json:"usersCount"`
	PermissionsCount int `db:"-" json:"permissionsCount"`
}

// Permission is a named capability, coded "<Module>.<Action>".
type Permission struct {
	entity.BaseEntity
	Module        string `db:"module" json:"module"`
	Action        string `db:"action" json:"action"`
	Code          string `db:"code" json:"code"`
	DisplayNameAr string `db:"display_name_ar" json:"displayNameAr"`
	DisplayNameEn string `db:"display_name_en" json:"displayNameEn"`
	DisplayOrder  int    `db:"display_order" json:"displayOrder"`
	IsActive      bool   `db:"is_active" json:"isActive"`
}

// Page is a navigable screen. Pages form a forest through ParentID.
type Page struct {
	entity.BaseEntity
	NameAr       string  `db:"name_ar" json:"nameAr"`
	NameEn       string  `db:"name_en" json:"nameEn"`
	URL          string  `db:"url" json:"url"`
	Icon         *string `db:"icon" json:"icon,omitempty"`
	ParentID     *int64  `db:"parent_id" json:"parentId,omitempty"`
	DisplayOrder int     `db:"display_order" json:"displayOrder"`
	IsActive     bool    `db:"is_active" json:"isActive"`
	IsInMenu     bool    `db:"is_in_menu" json:"isInMenu"`
}

// NormalizeURL returns url with a single leading slash.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "/") {
		return url
	}
	return "/" + url
}

// Action is an operation that can be offered on a page (view, create, ...).
type Action struct {
	entity.BaseEntity
	NameAr       string  `db:"name_ar" json:"nameAr"`
	NameEn       string  `db:"name_en" json:"nameEn"`
	Code         string  `db:"code" json:"code"`
	Icon         *string `db:"icon" json:"icon,omitempty"`
	DisplayOrder int     `db:"display_order" json:"displayOrder"`
	IsActive     bool    `db:"is_active" json:"isActive"`
}

// PageAction offers an action on a page.
type PageAction struct {
	ID       int64 `db:"id" json:"id"`
	PageID   int64 `db:"page_id" json:"pageId"`
	ActionID int64 `db:"action_id" json:"actionId"`
	IsActive bool  `db:"is_active" json:"isActive"`
}

// RolePermission grants a permission to a role.
type RolePermission struct {
	RoleID       int64 `db:"role_id" json:"roleId"`
	PermissionID int64 `db:"permission_id" json:"permissionId"`
	IsGranted    bool  `db:"is_granted" json:"isGranted"`
}

// RolePageAction grants a page action to a role.
type RolePageAction struct {
	ID           int64 `db:"id" json:"id"`
	RoleID       int64 `db:"role_id" json:"roleId"`
	PageActionID int64 `db:"page_action_id" json:"pageActionId"`
	IsGranted    bool  `db:"is_granted" json:"isGranted"`
}

// UserRole links a user to a role.
type UserRole struct {
	UserID     int64     `db:"user_id" json:"userId"`
	RoleID     int64     `db:"role_id" json:"roleId"`
	AssignedAt time.Time `db:"assigned_at" json:"assignedAt"`
}

// PermissionAssignment is a permission annotated with whether a role holds it.
type PermissionAssignment struct {
	Permission
	IsGranted bool `db:"is_granted" json:"isGranted"`
}

// PageActionAssignment describes a page action and whether a role holds it.
type PageActionAssignment struct {
	PageActionID int64  `db:"page_action_id" json:"pageActionId"`
	PageID       int64  `db:"page_id" json:"pageId"`
	PageNameAr   string `db:"page_name_ar" json:"pageNameAr"`
	PageNameEn   string `db:"page_name_en" json:"pageNameEn"`
	ActionID     int64  `db:"action_id" json:"actionId"`
	ActionCode   string `db:"action_code" json:"actionCode"`
	ActionNameAr string `db:"action_name_ar" json:"actionNameAr"`
	ActionNameEn string `db:"action_name_en" json:"actionNameEn"`
	IsGranted    bool   `db:"is_granted" json:"isGranted"`
}

// ActionAssignment is an action annotated with whether a page offers it.
type ActionAssignment struct {
	Action
	IsAssigned bool `db:"is_assigned" json:"isAssigned"`
}
