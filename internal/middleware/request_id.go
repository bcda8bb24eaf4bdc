package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/cxuy/cxkit/internal/pkg/web"
)

type requestIDKey struct{}

// RequestID tags the request with the incoming X-Request-ID or a new UUID
// and echoes it on the reply.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(web.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(web.HeaderRequestID, id)

		ctx := NewContextWithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func NewContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
