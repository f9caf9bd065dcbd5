package portal

import "time"

// TemplateSessionKey is the view data key holding SessionState.ViewData
const TemplateSessionKey = "session"

// TemplateHelpers returns the functions and data registered as globals
// on the view engine.
//
// In templates, you can then use:
//
//	{% if is_authenticated(session) %}
//	{% if has_role(session, roles.admin) %}
//	{% for role in role_names %}
func TemplateHelpers() map[string]any {
	roles := map[string]string{}
	names := make([]string, 0, len(GetAllRoles()))
	for _, role := range GetAllRoles() {
		roles[role.String()] = role.String()
		names = append(names, role.String())
	}

	return map[string]any{
		"is_authenticated": isAuthenticated,
		"has_role":         hasRole,
		"roles":            roles,
		"role_names":       names,
	}
}

// isAuthenticated checks the view data built by SessionState.ViewData
// or an admin user row
func isAuthenticated(data any) bool {
	switch d := data.(type) {
	case ViewContext:
		ok, _ := d["authenticated"].(bool)
		return ok
	case SessionState:
		return d.IsAuthenticated(time.Now())
	case *SessionState:
		return d != nil && d.IsAuthenticated(time.Now())
	default:
		return false
	}
}

// hasRole checks the role held by a session or a user row
func hasRole(data any, role string) bool {
	target, err := ParseRole(role)
	if err != nil {
		return false
	}

	switch d := data.(type) {
	case ViewContext:
		switch r := d["role"].(type) {
		case string:
			return UserRole(r) == target
		case UserRole:
			return r == target
		}
		return false
	case SessionState:
		return d.Role == target
	case *SessionState:
		return d != nil && d.Role == target
	case *User:
		return d != nil && d.Role == target
	default:
		return false
	}
}
