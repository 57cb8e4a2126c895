// internal/identity/service.go
package identity

import "context"

// Service defines the interface for the identity service.
type Service interface {
	Register(ctx context.Context, email, displayName, photoURL, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// Upsert records an account on first external sign-in without touching
	// the role of an existing account.
	Upsert(ctx context.Context, email, displayName, photoURL string) (*User, error)
	GetUser(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateProfile(ctx context.Context, email, displayName, photoURL string) error
	UpdateRole(ctx context.Context, email string, newRole Role) error
	// ResolveRole looks up the role attached to an account. The resolution is
	// tri-state: a lookup failure is reported as failed, never as RoleUser.
	ResolveRole(ctx context.Context, email string) RoleResolution
	// VerifyToken validates a bearer token and returns the session it names.
	VerifyToken(ctx context.Context, token string) (*Session, error)
}
