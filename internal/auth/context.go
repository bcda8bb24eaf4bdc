package auth

import (
	"context"
	"errors"

	"github.com/cxuy/cxkit/internal/platform/jwt"
)

var ErrNoUser = errors.New("no user in context")

type ctxKey int

const claimsCtxKey ctxKey = iota + 1

func NewContextWithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey).(*jwt.Claims)
	return claims, ok && claims != nil
}

// UserFromContext returns the subject of the verified token.
func UserFromContext(ctx context.Context) (string, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.Subject == "" {
		return "", ErrNoUser
	}
	return claims.Subject, nil
}
