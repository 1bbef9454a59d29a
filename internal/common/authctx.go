package common

import "context"

// Principal identifies the authenticated caller for the current request.
// It is resolved once by the auth middleware rather than re-fetched per
// handler.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }

type principalKey struct{}

// WithPrincipal stores the authenticated principal on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the principal if the request was authenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	v, ok := ctx.Value(principalKey{}).(Principal)
	return v, ok
}

// UserID is a convenience accessor for the authenticated user identifier.
func UserID(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.UserID == "" {
		return "", false
	}
	return p.UserID, true
}
