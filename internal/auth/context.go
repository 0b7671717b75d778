package auth

import (
	"context"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

type ctxKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(models.User)
	return u, ok
}

// UserID returns a pointer to the authenticated user's id, or nil.
func UserID(ctx context.Context) *int64 {
	u, ok := UserFrom(ctx)
	if !ok {
		return nil
	}
	id := u.ID
	return &id
}

// Username returns the authenticated username, or "system".
func Username(ctx context.Context) string {
	if u, ok := UserFrom(ctx); ok {
		return u.Username
	}
	return "system"
}
