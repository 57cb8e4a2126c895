// internal/identity/domain.go
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role controls which dashboard subtrees an account may reach.
type Role string

const (
	RoleUser      Role = "user"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleLibrarian, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Version     int       `json:"version"`
}

// Credential holds an account's login secret.
type Credential struct {
	UserID       uuid.UUID `json:"-"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
}

// Session is the authenticated-viewer record handed to callers after a
// successful sign-in. Token is an opaque bearer credential.
type Session struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Token       string `json:"token"`
}

// RoleResolution is the outcome of a role fetch. Role lookups settle
// independently of the session, and an unresolved or failed lookup is
// distinct from "role = user".
type RoleResolution struct {
	state roleState
	role  Role
}

type roleState int

const (
	rolePending roleState = iota
	roleResolved
	roleFailed
)

// RolePending is the zero-value resolution: the lookup has not settled.
func RolePending() RoleResolution { return RoleResolution{state: rolePending} }

// RoleResolved marks the lookup settled with a concrete role.
func RoleResolved(r Role) RoleResolution {
	return RoleResolution{state: roleResolved, role: r}
}

// RoleFailed marks the lookup settled unsuccessfully. A failed lookup never
// falls back to the base role.
func RoleFailed() RoleResolution { return RoleResolution{state: roleFailed} }

// Resolved reports whether the lookup settled with a role, and which one.
func (rr RoleResolution) Resolved() (Role, bool) {
	return rr.role, rr.state == roleResolved
}

// Failed reports whether the lookup settled unsuccessfully.
func (rr RoleResolution) Failed() bool { return rr.state == roleFailed }
