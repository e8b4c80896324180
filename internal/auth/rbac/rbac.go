// Package rbac holds the static role/permission matrix. The matrix is
// pure data so it can be audited and tested in isolation.
package rbac

import "github.com/bellalabs/bellaprep/internal/common/cnst"

// Role is the closed set of user roles.
type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleLenderAdmin Role = "LENDER_ADMIN"
	RoleLoanOfficer Role = "LOAN_OFFICER"
	RoleProcessor   Role = "PROCESSOR"
	RoleUnderwriter Role = "UNDERWRITER"
	RoleCloser      Role = "CLOSER"
	RoleBorrower    Role = "BORROWER"
)

// Action is the closed set of permission actions.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Roles lists every known role.
var Roles = []Role{
	RoleSuperAdmin, RoleLenderAdmin, RoleLoanOfficer,
	RoleProcessor, RoleUnderwriter, RoleCloser, RoleBorrower,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type actionSet map[Action]bool

func actions(as ...Action) actionSet {
	set := make(actionSet, len(as))
	for _, a := range as {
		set[a] = true
	}
	return set
}

var all = actions(ActionView, ActionCreate, ActionEdit, ActionDelete)

// permissions maps role -> resource -> allowed actions.
var permissions = map[Role]map[string]actionSet{
	RoleSuperAdmin: {
		cnst.ResourceTenant:   all,
		cnst.ResourceUser:     all,
		cnst.ResourceProduct:  all,
		cnst.ResourceBorrower: all,
		cnst.ResourceDocument: all,
		cnst.ResourceAudit:    actions(ActionView),
	},
	RoleLenderAdmin: {
		cnst.ResourceTenant:   actions(ActionView, ActionEdit),
		cnst.ResourceUser:     all,
		cnst.ResourceProduct:  all,
		cnst.ResourceBorrower: all,
		cnst.ResourceDocument: all,
		cnst.ResourceAudit:    actions(ActionView),
	},
	RoleLoanOfficer: {
		cnst.ResourceUser:     actions(ActionView),
		cnst.ResourceProduct:  actions(ActionView),
		cnst.ResourceBorrower: actions(ActionView, ActionCreate, ActionEdit),
		cnst.ResourceDocument: actions(ActionView, ActionCreate, ActionEdit),
		cnst.ResourceAudit:    actions(ActionView),
	},
	RoleProcessor: {
		cnst.ResourceProduct:  actions(ActionView),
		cnst.ResourceBorrower: actions(ActionView, ActionEdit),
		cnst.ResourceDocument: actions(ActionView, ActionCreate, ActionEdit, ActionDelete),
	},
	RoleUnderwriter: {
		cnst.ResourceProduct:  actions(ActionView),
		cnst.ResourceBorrower: actions(ActionView, ActionEdit),
		cnst.ResourceDocument: actions(ActionView, ActionEdit),
	},
	RoleCloser: {
		cnst.ResourceBorrower: actions(ActionView, ActionEdit),
		cnst.ResourceDocument: actions(ActionView),
	},
	RoleBorrower: {
		cnst.ResourceBorrower: actions(ActionView, ActionEdit),
		cnst.ResourceDocument: actions(ActionView, ActionCreate),
	},
}

// Can reports whether the role may perform the action on the resource.
// Unknown roles, resources and actions all deny.
func Can(role Role, resource string, action Action) bool {
	byResource, ok := permissions[role]
	if !ok {
		return false
	}
	set, ok := byResource[resource]
	if !ok {
		return false
	}
	return set[action]
}
