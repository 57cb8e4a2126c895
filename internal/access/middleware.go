// internal/access/middleware.go
package access

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"bookcourier/internal/identity"
	"bookcourier/internal/web"
)

// SessionFrom extracts the authenticated session placed on the request
// context by Gatekeeper.Authenticate.
func SessionFrom(ctx context.Context) (*identity.Session, bool) {
	return identity.SessionFrom(ctx)
}

// ContextWithSession attaches a session to the context, exactly as
// Gatekeeper.Authenticate does for a verified token.
func ContextWithSession(ctx context.Context, s *identity.Session) context.Context {
	return identity.ContextWithSession(ctx, s)
}

// RoleFrom extracts the caller's resolved role, set by RequireRole once the
// resolution settled.
func RoleFrom(ctx context.Context) (identity.Role, bool) {
	return identity.RoleFrom(ctx)
}

// Gatekeeper wires the pure Evaluate decision into HTTP middleware.
type Gatekeeper struct {
	identities identity.Service
	logger     *zap.SugaredLogger
}

func NewGatekeeper(identities identity.Service, logger *zap.SugaredLogger) *Gatekeeper {
	return &Gatekeeper{identities: identities, logger: logger}
}

// Authenticate is the outer gate: it resolves the bearer token to a session
// and rejects unauthenticated viewers. The originating location is echoed
// back so a sign-in can return the viewer to it.
func (g *Gatekeeper) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, state := g.resolveSession(r)

		switch Evaluate(state, identity.RolePending()) {
		case DecisionRedirectToLogin:
			web.WriteJSON(w, http.StatusUnauthorized, map[string]string{
				"error":    "authentication required",
				"redirect": "/login",
				"from":     r.URL.RequestURI(),
			})
			return
		case DecisionResolving:
			web.WriteError(w, http.StatusServiceUnavailable, errors.New("session not resolved"))
			return
		}

		ctx := identity.ContextWithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is an inner gate for role-restricted subtrees. It assumes
// Authenticate already ran; unauthenticated requests never reach it in the
// assembled router, but it re-checks rather than trusting the caller.
func (g *Gatekeeper) RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok {
				web.WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":    "authentication required",
					"redirect": "/login",
					"from":     r.URL.RequestURI(),
				})
				return
			}

			resolution := g.identities.ResolveRole(r.Context(), session.Email)

			switch Evaluate(SessionPresent, resolution, roles...) {
			case DecisionPermitted:
				role, _ := resolution.Resolved()
				next.ServeHTTP(w, r.WithContext(identity.ContextWithRole(r.Context(), role)))
			case DecisionDenied:
				web.WriteError(w, http.StatusForbidden, errors.New("forbidden"))
			default:
				// Role lookup did not settle. Refusing with a retryable
				// status keeps an unknown role from passing as "user".
				g.logger.Warnw("role resolution unsettled", "email", session.Email)
				web.WriteError(w, http.StatusServiceUnavailable, errors.New("role not resolved"))
			}
		})
	}
}

func (g *Gatekeeper) resolveSession(r *http.Request) (*identity.Session, SessionState) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, SessionAbsent
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, SessionAbsent
	}

	session, err := g.identities.VerifyToken(r.Context(), parts[1])
	if err != nil {
		return nil, SessionAbsent
	}
	return session, SessionPresent
}
