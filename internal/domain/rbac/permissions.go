package rbac

// Permission codes checked by the HTTP layer.
const (
	PermUsersView          = "Users.View"
	PermUsersCreate        = "Users.Create"
	PermUsersEdit          = "Users.Edit"
	PermUsersDelete        = "Users.Delete"
	PermUsersManageRoles   = "Users.ManageRoles"
	PermUsersResetPassword = "Users.ResetPassword"
	PermUsersExport        = "Users.Export"

	PermRolesView              = "Roles.View"
	PermRolesCreate            = "Roles.Create"
	PermRolesEdit              = "Roles.Edit"
	PermRolesDelete            = "Roles.Delete"
	PermRolesManagePermissions = "Roles.ManagePermissions"

	PermPagesView   = "Pages.View"
	PermPagesCreate = "Pages.Create"
	PermPagesEdit   = "Pages.Edit"
	PermPagesDelete = "Pages.Delete"

	PermActionsView   = "Actions.View"
	PermActionsCreate = "Actions.Create"
	PermActionsEdit   = "Actions.Edit"
	PermActionsDelete = "Actions.Delete"

	PermAuditLogsView   = "AuditLogs.View"
	PermAuditLogsExport = "AuditLogs.Export"

	PermSettingsView = "Settings.View"
	PermSettingsEdit = "Settings.Edit"

	PermTenantsView   = "Tenants.View"
	PermTenantsCreate = "Tenants.Create"
	PermTenantsEdit   = "Tenants.Edit"
	PermTenantsDelete = "Tenants.Delete"
)

// ModuleNames maps a permission module to its Arabic and English display names.
var ModuleNames = map[string][2]string{
	"Users":     {"المستخدمين", "Users"},
	"Roles":     {"الأدوار", "Roles"},
	"Pages":     {"الصفحات", "Pages"},
	"Actions":   {"الإجراءات", "Actions"},
	"AuditLogs": {"سجل التدقيق", "Audit Logs"},
	"Settings":  {"الإعدادات", "Settings"},
	"Tenants":   {"المستأجرين", "Tenants"},
}

// ModuleDisplayName returns the Arabic and English names for module,
// falling back to the module key itself.
func ModuleDisplayName(module string) (ar, en string) {
	if n, ok := ModuleNames[module]; ok {
		return n[0], n[1]
	}
	return module, module
}
