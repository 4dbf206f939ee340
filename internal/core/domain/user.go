package domain

import (
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RolePatient Role = "Patient"
	RoleDoctor  Role = "Doctor"
	RoleAdmin   Role = "Admin"
)

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patient":
		return RolePatient, true
	case "doctor":
		return RoleDoctor, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

func (r Role) IsValid() bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// User models an account. Secrets never leave the storage/service boundary.
type User struct {
	ID                     string
	Email                  string
	FirstName              string
	LastName               string
	Role                   Role
	Specialization         string
	PasswordHash           string
	ProfilePictureURL      string
	RefreshTokenHash       string
	RefreshTokenExpiry     time.Time
	PasswordResetTokenHash string
	PasswordResetExpiry    time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail is the canonical form used for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
