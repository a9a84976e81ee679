package enums

import "fmt"

// Role is the closed set of account roles on campus.
type Role string

const (
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleWarden  Role = "warden"
	RoleGuard   Role = "guard"
	RoleAdmin   Role = "admin"
)

var validRoles = []Role{
	RoleStudent,
	RoleParent,
	RoleWarden,
	RoleGuard,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanApproveAsWarden reports whether the role may act on warden approval paths.
func (r Role) CanApproveAsWarden() bool {
	return r == RoleWarden || r == RoleAdmin
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
