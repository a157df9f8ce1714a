package rbac

import "time"

// ModuleGrants holds the action grants for one module.
type ModuleGrants struct {
	Actions map[string]bool `json:"actions"`
}

// RolePermissions maps module name to its action grants for a role.
type RolePermissions map[string]ModuleGrants

// RoleRecord is the stored override set for a role.
type RoleRecord struct {
	Role        string
	Permissions RolePermissions
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CapabilityModule describes one module and the actions the system recognises for it.
type CapabilityModule struct {
	Name    string   `json:"name"`
	Actions []string `json:"actions"`
}

// Decision is the outcome of a permission evaluation.
type Decision struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason,omitempty"`
}

// Grant returns a granted decision.
func Grant() Decision {
	return Decision{Granted: true}
}

// Deny returns a denied decision carrying the reason.
func Deny(reason string) Decision {
	return Decision{Granted: false, Reason: reason}
}

// Module and action names recognised by the capability matrix.
const (
	ModuleCategories   = "categories"
	ModuleProducts     = "products"
	ModuleStock        = "stock"
	ModuleCash         = "cash"
	ModuleBilling      = "billing"
	ModuleUsers        = "users"
	ModulePermissions  = "permissions"
	ModuleDashboard    = "dashboard"

	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"

	ActionViewDailyBills = "view_daily_bills"
	ActionViewAllBills   = "view_all_bills"
	ActionViewBills      = "view_bills"
	ActionRefund         = "refund"
)

// CapabilityMatrix returns the static module and action taxonomy.
// It carries no per-role data.
func CapabilityMatrix() []CapabilityModule {
	return []CapabilityModule{
		{Name: ModuleCategories, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
		{Name: ModuleProducts, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
		{Name: ModuleStock, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
		{Name: ModuleCash, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
		{Name: ModuleBilling, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionViewDailyBills, ActionViewAllBills, ActionRefund}},
		{Name: ModuleUsers, Actions: []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
		{Name: ModulePermissions, Actions: []string{ActionView, ActionEdit}},
		{Name: ModuleDashboard, Actions: []string{ActionView}},
	}
}
