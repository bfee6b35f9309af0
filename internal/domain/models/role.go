// internal/domain/models/role.go
package models

import "strings"

// Role is a member's place in the portal hierarchy.
//
// Roles are totally ordered: super_admin > admin > member > user.
// Compare roles with Rank or Outranks, never with string comparison.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleMember     Role = "member"
	RoleUser       Role = "user"
)

// AllRoles lists every role from highest to lowest.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleMember, RoleUser}

// Rank returns the role's position in the hierarchy (1 is highest).
// Unknown roles rank below user.
func (r Role) Rank() int {
	switch r {
	case RoleSuperAdmin:
		return 1
	case RoleAdmin:
		return 2
	case RoleMember:
		return 3
	case RoleUser:
		return 4
	default:
		return 5
	}
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	return r.Rank() <= 4
}

// Outranks reports whether r is strictly higher than other.
func (r Role) Outranks(other Role) bool {
	return r.Rank() < other.Rank()
}

// AtLeast reports whether r is other or higher.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() <= other.Rank()
}

// IsAdmin reports whether r is admin or super_admin.
func (r Role) IsAdmin() bool {
	return r.AtLeast(RoleAdmin)
}

// Label returns a human-readable name for the role.
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleMember:
		return "Member"
	case RoleUser:
		return "User"
	default:
		return string(r)
	}
}

// ParseRole normalizes s and returns the matching Role.
// Both "super_admin" and "superadmin" are accepted.
func ParseRole(s string) (Role, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "superadmin" {
		v = string(RoleSuperAdmin)
	}
	r := Role(v)
	return r, r.Valid()
}
