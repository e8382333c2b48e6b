package domain

// Staff role constants. The hierarchy is fixed at build time and not
// configurable at runtime.
const (
	RoleStaff   = "staff"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// roleLevels ranks the known roles. Anything unrecognized ranks at 0,
// below staff.
var roleLevels = map[string]int{
	RoleStaff:   1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// HasPermission reports whether actualRole satisfies requiredRole under the
// role hierarchy. Matching is case-sensitive. An unknown role is not an
// error: it is denied, never rejected.
func HasPermission(actualRole, requiredRole string) bool {
	return roleLevels[actualRole] >= roleLevels[requiredRole]
}
