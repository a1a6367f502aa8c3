package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"context"
	"strings"
)

// Role represents an application's authorization role as reported by the backend.
// Unknown values are kept verbatim so the UI can still land the user somewhere sensible.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "profesor"
)

// ParseRole normalizes a backend role string. Known roles are matched case-insensitively.
func ParseRole(raw string) Role {
	v := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(v, string(RoleAdmin)):
		return RoleAdmin
	case strings.EqualFold(v, string(RoleInstructor)):
		return RoleInstructor
	default:
		return Role(v)
	}
}

// Is reports whether r names the same role as other, ignoring case.
func (r Role) Is(other Role) bool {
	return strings.EqualFold(strings.TrimSpace(string(r)), string(other))
}

// Known reports whether the role is one the application has screens for.
func (r Role) Known() bool { return r.Is(RoleAdmin) || r.Is(RoleInstructor) }

// CurrentUser is the profile of the signed-in principal.
type CurrentUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"nombre"`
	Role        Role   `json:"rol"`
	Email       string `json:"correo,omitempty"`
}

// Credentials are submitted to the backend login endpoint.
type Credentials struct {
	Email    string `json:"correo" validate:"required,email"`
	Password string `json:"clave"  validate:"required"`
}

// State is the derived lifecycle state of a client session.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticatedNoProfile
	StateAuthenticatedWithProfile
)

func (s State) String() string {
	switch s {
	case StateAuthenticatedNoProfile:
		return "authenticated_no_profile"
	case StateAuthenticatedWithProfile:
		return "authenticated_with_profile"
	default:
		return "unauthenticated"
	}
}

// Snapshot is the observable session state for one client.
// Authenticated implies a token is persisted for that client; User may be nil while authenticated.
type Snapshot struct {
	Authenticated bool         `json:"authenticated"`
	User          *CurrentUser `json:"user,omitempty"`
}

// State derives the lifecycle state from the snapshot.
func (s Snapshot) State() State {
	switch {
	case !s.Authenticated:
		return StateUnauthenticated
	case s.User == nil:
		return StateAuthenticatedNoProfile
	default:
		return StateAuthenticatedWithProfile
	}
}

// HasRole reports whether the snapshot carries a loaded profile with the given role.
func (s Snapshot) HasRole(role Role) bool {
	return s.Authenticated && s.User != nil && s.User.Role.Is(role)
}

type clientIDKey struct{}

// WithClientID returns a child context bound to the given browser/CLI client identity.
func WithClientID(ctx context.Context, clientID string) context.Context {
	if clientID == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientIDFromContext returns the client identity bound to ctx, if any.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey{}).(string)
	return id, ok && id != ""
}
