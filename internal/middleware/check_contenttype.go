package middleware

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/cxuy/cxkit/internal/pkg/web"
	"github.com/cxuy/cxkit/internal/rpc"
)

// CheckContentType rejects requests that carry a body with a media type
// other than application/json.
func CheckContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get(web.HeaderContentType)
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != web.MimeJSON {
			web.Fail(w, http.StatusUnsupportedMediaType, fmt.Errorf("invalid content-type: %q", contentType), rpc.ParamsError)
			return
		}

		next.ServeHTTP(w, r)
	})
}
