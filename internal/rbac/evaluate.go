package rbac

// Evaluate resolves a permission check for a role against its stored overrides.
// A role with no stored overrides is denied everything.
func Evaluate(role, module, action string, overrides RolePermissions) Decision {
	if role == "" {
		return Deny("no role")
	}
	if overrides == nil {
		return Deny("no permissions stored for role")
	}
	if module == ModuleBilling && action == ActionViewBills {
		return viewBillsRule(overrides)
	}
	mod, ok := overrides[module]
	if !ok {
		return Deny("module not granted")
	}
	if mod.Actions == nil {
		return Deny("no actions granted for module")
	}
	if mod.Actions[action] {
		return Grant()
	}
	return Deny("action not granted")
}

// viewBillsRule grants view_bills when the role may view either daily or all bills.
func viewBillsRule(overrides RolePermissions) Decision {
	billing, ok := overrides[ModuleBilling]
	if !ok || billing.Actions == nil {
		return Deny("no billing permissions for role")
	}
	if billing.Actions[ActionViewDailyBills] || billing.Actions[ActionViewAllBills] {
		return Grant()
	}
	return Deny("neither daily nor all bill viewing granted")
}
