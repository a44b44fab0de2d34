package auth

import (
	"context"
	"errors"
)

// Identity is the authenticated admin behind a request.
type Identity struct {
	Username string
	Role     string
}

type ctxKey struct{}

var errNoIdentity = errors.New("auth: no identity in context")

func WithIdentity(ctx context.Context, username, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, Identity{Username: username, Role: role})
}

// IdentityFrom returns the identity set by RequireAccessToken.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.Username != ""
}

func Role(ctx context.Context) (string, error) {
	id, ok := IdentityFrom(ctx)
	if !ok || id.Role == "" {
		return "", errNoIdentity
	}
	return id.Role, nil
}
