package handler

import (
	"context"

	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

type ContextKey string

var IdentityCtx ContextKey = "identity"

func withIdentity(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, IdentityCtx, user)
}

// identity returns the user resolved by the auth middleware, or nil on public routes.
func identity(ctx context.Context) *domain.User {
	user, _ := ctx.Value(IdentityCtx).(*domain.User)
	return user
}
