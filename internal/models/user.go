// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// IsAdmin reports whether the role may manage stores.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents an account with authentication and 2FA fields.
// Customers have RoleUser; store owners RoleAdmin.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin or superadmin role.
func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
// All admins must set up 2FA on their first login.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor may use the admin surface.
func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// CanManage reports whether the actor may change the given store:
// superadmins manage every store, admins only the ones they own.
func (a Actor) CanManage(s *Store) bool {
	if s == nil {
		return false
	}
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.Role == RoleAdmin && s.OwnedBy(a.UserID)
}
