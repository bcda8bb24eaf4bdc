package middleware

import (
	"net/http"

	"github.com/cxuy/cxkit/internal/pkg/web"
	"github.com/cxuy/cxkit/internal/rpc"
)

// ContextGuard replies 503 without calling next when the request context
// already ended, which happens while the server shuts down.
func ContextGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.Context().Err(); err != nil {
			web.Fail(w, http.StatusServiceUnavailable, err, rpc.Failure)
			return
		}

		next.ServeHTTP(w, r)
	})
}
