package auth

import (
	"chat-dm/domain"
	"context"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// WithIdentity returns a copy of ctx carrying the verified caller.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// IdentityFrom returns the caller attached by Middleware.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(UserIDKey).(domain.Identity)
	return id, ok && !id.IsEmpty()
}
