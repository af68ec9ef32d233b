package auth

import "strings"

// Roles form a strict ladder: investors hold RoleUser, console operators hold
// RoleAdmin, and user management is reserved for RoleSuperAdmin.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// NormalizeRole lower-cases and trims a role, defaulting unknown values to
// RoleUser so a malformed claim can never grant elevated access.
func NormalizeRole(role string) string {
	switch strings.TrimSpace(strings.ToLower(role)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleUser
	}
}

// IsAdminRole reports whether the role grants admin console access.
func IsAdminRole(role string) bool {
	role = NormalizeRole(role)
	return role == RoleAdmin || role == RoleSuperAdmin
}
