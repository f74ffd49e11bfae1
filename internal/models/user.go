package models

import "time"

// UserRole is the access level granted to an account.
type UserRole string

const (
	RoleCandidate UserRole = "candidate"
	RoleOfficer   UserRole = "officer"
	RoleAdmin     UserRole = "admin"
)

// IsOfficer reports whether the role may review applications.
func (r UserRole) IsOfficer() bool {
	return r == RoleOfficer || r == RoleAdmin
}

// User represents an application user record.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitize returns a copy of the user without sensitive fields populated.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}
