package middleware

import (
	"context"

	"github.com/gosuda/menuboard/internal/domain"
)

type contextKey string

const ContextKeyIdentity contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	v, ok := ctx.Value(ContextKeyIdentity).(*domain.Identity)
	return v, ok && v != nil
}
