package domain

import "time"

// Role enumerates the account types known to the system.
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleAuthority Role = "AUTHORITY"
	RoleAdmin     Role = "ADMIN"
)

// ValidRole reports whether the value is a member of the role enumeration.
func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleAuthority, RoleAdmin:
		return true
	}
	return false
}

// User is the single principal model: students, department authorities and
// administrators all live in one table, differentiated by Role.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Department   *Department
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanBeAssigned reports whether a grievance may be routed to this user.
func (u *User) CanBeAssigned() bool {
	return u != nil && (u.Role == RoleAuthority || u.Role == RoleAdmin)
}
