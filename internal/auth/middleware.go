package auth

import (
	"errors"
	"net/http"

	"github.com/cxuy/cxkit/internal/pkg/web"
	"github.com/cxuy/cxkit/internal/platform/jwt"
	"github.com/cxuy/cxkit/internal/rpc"
)

var ErrMissingToken = errors.New("missing bearer token")

// RequireToken replies 401 unless the request carries a valid bearer token.
// The verified claims are put in the request context.
func RequireToken(signer jwt.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := web.BearerToken(r)
			if token == "" {
				web.Fail(w, http.StatusUnauthorized, ErrMissingToken, rpc.Failure)
				return
			}

			claims, err := signer.Verify(token)
			if err != nil {
				web.Fail(w, http.StatusUnauthorized, err, rpc.Failure)
				return
			}

			ctx := NewContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
