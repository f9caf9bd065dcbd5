package portal

// UserRole is the user's role. Only RoleUser and RoleAdmin exist; every
// switch over UserRole must handle both and treat anything else as invalid.
type UserRole string

const (
	// RoleUser is the default role (members area)
	RoleUser UserRole = "user"
	// RoleAdmin can see the user list and change roles
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the two known roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r grants access to admin pages
func (r UserRole) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// Allows checks if r satisfies the required role. An invalid role never
// satisfies anything, and an invalid requirement is never satisfied.
func (r UserRole) Allows(required UserRole) bool {
	switch required {
	case RoleUser:
		return r.IsValid()
	case RoleAdmin:
		return r.IsAdmin()
	default:
		return false
	}
}

// String returns the stored role name
func (r UserRole) String() string {
	return string(r)
}

// GetAllRoles returns all roles, lowest first
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, error) {
	role := UserRole(roleStr)
	if !role.IsValid() {
		return "", derive(ErrInvalidRole, map[string]any{"role": roleStr})
	}
	return role, nil
}

// RoleForUsername applies the admin bootstrap rule: the one configured
// admin username gets RoleAdmin, everyone else RoleUser.
func RoleForUsername(username, adminUsername string) UserRole {
	if adminUsername != "" && username == adminUsername {
		return RoleAdmin
	}
	return RoleUser
}
