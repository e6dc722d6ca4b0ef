package user

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleUser     Role = "user"
	RoleBusiness Role = "business"
	RoleAdmin    Role = "admin"
)

// Capability is a privileged action gated by role.
type Capability int

const (
	// CapPublish allows posting messages to rooms.
	CapPublish Capability = iota
	// CapManageAnyRoom allows deleting rooms the user does not own.
	CapManageAnyRoom
)

// ParseRole maps a stored role string to a Role. Unknown or empty
// strings fall back to RoleUser.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleBusiness:
		return RoleBusiness
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	switch c {
	case CapPublish:
		return r == RoleUser || r == RoleBusiness || r == RoleAdmin
	case CapManageAnyRoom:
		return r == RoleAdmin
	default:
		return false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleBusiness, RoleAdmin:
		return true
	default:
		return false
	}
}
