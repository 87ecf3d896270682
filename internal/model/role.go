package model

// Role is the closed set of staff roles. Stored as a string column but every
// comparison in code goes through these constants — there is no dynamic
// permission table.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Permissions is the capability matrix for a role. One struct of booleans per
// role keeps the admin/manager/employee differences checkable at compile time
// instead of behind string lookups.
type Permissions struct {
	UsePOS bool

	ManageProducts  bool // create/update/deactivate products and categories
	AdjustStock     bool
	ManageCustomers bool
	ManageSuppliers bool
	CreatePurchases bool

	ViewReports bool

	ManageStaff       bool
	ManageWooCommerce bool
	ManageSettings    bool
}

var rolePermissions = map[Role]Permissions{
	RoleAdmin: {
		UsePOS:            true,
		ManageProducts:    true,
		AdjustStock:       true,
		ManageCustomers:   true,
		ManageSuppliers:   true,
		CreatePurchases:   true,
		ViewReports:       true,
		ManageStaff:       true,
		ManageWooCommerce: true,
		ManageSettings:    true,
	},
	RoleManager: {
		UsePOS:          true,
		ManageProducts:  true,
		AdjustStock:     true,
		ManageCustomers: true,
		ManageSuppliers: true,
		CreatePurchases: true,
		ViewReports:     true,
	},
	RoleEmployee: {
		UsePOS: true,
	},
}

// PermissionsFor returns the capability matrix for a role. Unknown roles get
// the zero value (no capabilities).
func PermissionsFor(r Role) Permissions {
	return rolePermissions[r]
}
