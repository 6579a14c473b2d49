package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
)

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher
}
