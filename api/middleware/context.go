package middleware

import (
	"context"

	"userhub-backend/internal/users"
)

type contextKey string

const (
	ctxIdentity contextKey = "identity"
)

// IdentityFromContext returns the authenticated account attached by Auth,
// or nil on unauthenticated routes.
func IdentityFromContext(ctx context.Context) *users.UserDTO {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxIdentity).(*users.UserDTO); ok {
		return v
	}
	return nil
}

// WithIdentity injects the authenticated account into the context.
func WithIdentity(ctx context.Context, identity *users.UserDTO) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}
