// internal/identity/context.go
package identity

import "context"

type contextKey string

const sessionKey contextKey = "bookcourier.session"

// ContextWithSession attaches a verified session to the context.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom extracts the session attached by the authentication layer.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}

const roleKey contextKey = "bookcourier.role"

// ContextWithRole attaches the caller's resolved role. Only the role gate
// sets this, and only after the resolution settled.
func ContextWithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// RoleFrom extracts the resolved role of the caller, if the request passed
// a role gate.
func RoleFrom(ctx context.Context) (Role, bool) {
	r, ok := ctx.Value(roleKey).(Role)
	return r, ok
}
