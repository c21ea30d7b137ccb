// Package audit records security-relevant events into an append-only log.
package audit

import (
	"encoding/json"
	"strings"
	"time"

	"adminpanel/internal/domain/filter"
)

// Action is the kind of audited operation. Values are persisted.
type Action int

const (
	ActionCreate Action = iota + 1
	ActionUpdate
	ActionDelete
	ActionLogin
	ActionLogout
	ActionView
	ActionExport
	ActionImport
)

var actionNames = map[Action]string{
	ActionCreate: "Create",
	ActionUpdate: "Update",
	ActionDelete: "Delete",
	ActionLogin:  "Login",
	ActionLogout: "Logout",
	ActionView:   "View",
	ActionExport: "Export",
	ActionImport: "Import",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "Unknown"
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// ParseAction parses an action name case-insensitively.
func ParseAction(s string) (Action, bool) {
	for a, n := range actionNames {
		if strings.EqualFold(n, s) {
			return a, true
		}
	}
	return 0, false
}

// Entity names used by the services.
const (
	EntityUser       = "User"
	EntityRole       = "Role"
	EntityPermission = "Permission"
	EntityPage       = "Page"
	EntityAction     = "Action"
	EntityTenant     = "Tenant"
)

// Entry is one audit log row.
type Entry struct {
	ID              int64           `json:"id"`
	UserID          *int64          `json:"userId,omitempty"`
	UserName        *string         `json:"userName,omitempty"`
	TenantID        *int64          `json:"tenantId,omitempty"`
	EntityName      string          `json:"entityName"`
	EntityID        *string         `json:"entityId,omitempty"`
	Action          Action          `json:"action"`
	OldValues       json.RawMessage `json:"oldValues,omitempty"`
	NewValues       json.RawMessage `json:"newValues,omitempty"`
	AffectedColumns []string        `json:"affectedColumns,omitempty"`
	IPAddress       *string         `json:"ipAddress,omitempty"`
	UserAgent       *string         `json:"userAgent,omitempty"`
	AdditionalInfo  *string         `json:"additionalInfo,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ActionName is the display name of the entry's action.
func (e Entry) ActionName() string {
	return e.Action.String()
}

// Sort columns accepted by Filter.SortBy.
const (
	SortByCreatedAt  = "createdAt"
	SortByEntityName = "entityName"
	SortByAction     = "action"
	SortByUserName   = "userName"
)

// Filter selects audit entries.
type Filter struct {
	filter.Page
	Search         string
	UserID         *int64
	EntityName     string
	Action         *Action
	From           *time.Time
	To             *time.Time
	SortBy         string
	SortDescending bool
}

// DefaultFilter lists newest entries first.
func DefaultFilter() Filter {
	return Filter{SortBy: SortByCreatedAt, SortDescending: true}
}
