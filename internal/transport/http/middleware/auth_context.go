package middleware

import (
	"context"

	"github.com/baechuer/contacts-api/internal/application/auth"
)

type ctxKey string

const ctxIdentity ctxKey = "identity"

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	v, ok := ctx.Value(ctxIdentity).(auth.Identity)
	return v, ok && v.User.ID != ""
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.User.ID, ok
}
