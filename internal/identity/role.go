package identity

import "fmt"

// Role is the closed set of campus roles. Capabilities are derived from
// the role, never stored, and every predicate denies by default: a role
// that is not explicitly listed for an action does not get it.
type Role string

const (
	RoleStudent       Role = "student"
	RoleFaculty       Role = "faculty"
	RoleClassIncharge Role = "class_incharge"
	RoleHOD           Role = "hod"
	RolePrincipal     Role = "principal"
	RoleSecurity      Role = "security"
	RoleAdmin         Role = "admin"
)

// Roles lists every defined role.
var Roles = []Role{
	RoleStudent,
	RoleFaculty,
	RoleClassIncharge,
	RoleHOD,
	RolePrincipal,
	RoleSecurity,
	RoleAdmin,
}

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if s == string(r) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanCreatePass reports whether the role may request gate passes.
func (r Role) CanCreatePass() bool {
	return r == RoleStudent
}

// IsApprover reports whether the role may decide pending passes at all.
// Whether a given pass type is decidable is a separate, object-level rule
// (class in-charge is restricted to EMERGENCY).
func (r Role) IsApprover() bool {
	switch r {
	case RoleClassIncharge, RoleHOD, RolePrincipal:
		return true
	}
	return false
}

// CanApproveAnyType reports whether the role may decide every pass type.
func (r Role) CanApproveAnyType() bool {
	return r == RoleHOD || r == RolePrincipal
}

// CanMarkGate reports whether the role may record exit/entry events and
// scan QR tokens at the gate.
func (r Role) CanMarkGate() bool {
	return r == RoleSecurity
}

// ViewsAllPasses reports whether the role reads passes campus-wide.
func (r Role) ViewsAllPasses() bool {
	return r == RolePrincipal || r == RoleAdmin
}

// ViewsDepartmentPasses reports whether the role reads passes scoped to
// its own department. A holder without a department sees nothing.
func (r Role) ViewsDepartmentPasses() bool {
	switch r {
	case RoleFaculty, RoleClassIncharge, RoleHOD:
		return true
	}
	return false
}
