// Package authctx provides utilities to inject the authenticated session
// for the original *http.Request into the context and also retrieve it.
package authctx

import (
	"context"

	"github.com/lucid-framework/auth-gateway/internal/session"
)

// Using an unexported type prevents key collisions from other packages.
type authSessionKey string

// AuthSessionKey is the context key for the authenticated session.
const AuthSessionKey authSessionKey = "auth-session"

// WithSession returns a context carrying the authenticated session.
func WithSession(ctx context.Context, authSession session.AuthSession) context.Context {
	return context.WithValue(ctx, AuthSessionKey, authSession)
}

// FromContext retrieves the authenticated session from the context. The
// second return is false for unauthenticated requests.
func FromContext(ctx context.Context) (session.AuthSession, bool) {
	authSession, ok := ctx.Value(AuthSessionKey).(session.AuthSession)

	return authSession, ok
}

// IsAuthenticated reports whether the context carries a session.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := FromContext(ctx)

	return ok
}
