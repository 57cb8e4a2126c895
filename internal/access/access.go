// internal/access/access.go

// Package access decides, per navigation, whether a viewer may render a
// role-restricted subtree. The decision is a pure function over the session
// state and the independently fetched role, so gates compose and stay
// unit-testable without a transport.
package access

import "bookcourier/internal/identity"

// SessionState is the viewer's authentication state as seen by a gate.
type SessionState int

const (
	// SessionLoading means session resolution is still in flight.
	SessionLoading SessionState = iota
	// SessionAbsent means resolution finished with no authenticated viewer.
	SessionAbsent
	// SessionPresent means an authenticated viewer exists.
	SessionPresent
)

// Decision is the outcome of evaluating one protected subtree.
type Decision int

const (
	// DecisionResolving: session or role resolution is pending; render a
	// loading placeholder, perform no side effects.
	DecisionResolving Decision = iota
	// DecisionRedirectToLogin: no authenticated viewer; send to sign-in,
	// preserving the originating location.
	DecisionRedirectToLogin
	// DecisionPermitted: the subtree may render.
	DecisionPermitted
	// DecisionDenied: authenticated but the resolved role is not allowed;
	// render the forbidden view, never retry.
	DecisionDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionResolving:
		return "resolving"
	case DecisionRedirectToLogin:
		return "redirect-to-login"
	case DecisionPermitted:
		return "permitted"
	case DecisionDenied:
		return "denied"
	}
	return "unknown"
}

// Evaluate gates one subtree. requiredRoles empty means any authenticated
// viewer is permitted. An unresolved or failed role lookup keeps the decision
// at Resolving whenever a specific role is required: "role unknown" is never
// treated as "role = user".
func Evaluate(session SessionState, role identity.RoleResolution, requiredRoles ...identity.Role) Decision {
	switch session {
	case SessionLoading:
		return DecisionResolving
	case SessionAbsent:
		return DecisionRedirectToLogin
	}

	if len(requiredRoles) == 0 {
		return DecisionPermitted
	}

	resolved, ok := role.Resolved()
	if !ok {
		return DecisionResolving
	}

	for _, required := range requiredRoles {
		if resolved == required {
			return DecisionPermitted
		}
	}
	return DecisionDenied
}
