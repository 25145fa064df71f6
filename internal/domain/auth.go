package domain

// Role differentiates the three dashboard audiences.
type Role string

const (
	RoleManager Role = "manager"
	RoleIntern  Role = "intern"
	RoleHR      Role = "hr"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleIntern, RoleHR:
		return true
	default:
		return false
	}
}

// Privileged roles need an invite code to register.
func (r Role) Privileged() bool {
	return r == RoleManager || r == RoleHR
}

// Actor identifies who is performing a workflow action.
type Actor struct {
	Email string
	Role  Role
}
