package domain

// Role is the console role carried in the user's metadata.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
	// RoleVisitor is the sentinel role of an unauthenticated console.
	RoleVisitor Role = "visitor"
)

// AssignableRoles lists the roles an administrator may grant.
var AssignableRoles = []Role{RoleAdmin, RoleManager, RoleViewer}

// Assignable reports whether the role can be granted through the console.
func (r Role) Assignable() bool {
	for _, candidate := range AssignableRoles {
		if r == candidate {
			return true
		}
	}
	return false
}

// RoleFromMetadata extracts the role from user metadata, defaulting to viewer.
func RoleFromMetadata(meta map[string]any) Role {
	if meta == nil {
		return RoleViewer
	}
	if raw, ok := meta["role"].(string); ok && raw != "" {
		return Role(raw)
	}
	return RoleViewer
}

// HasAnyRole reports whether role is one of allowed.
func HasAnyRole(role Role, allowed []Role) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
