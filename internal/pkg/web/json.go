package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/cxuy/cxkit/internal/rpc"
)

// DecodeEnvelope decodes the body of res as an envelope carrying T.
func DecodeEnvelope[T any](t *testing.T, res *http.Response) rpc.Envelope[T] {
	t.Helper()

	var env rpc.Envelope[T]
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode json response: %v", err)
	}

	return env
}

func AssertContentType(t *testing.T, res *http.Response) {
	t.Helper()

	gotContent := res.Header.Get(HeaderContentType)
	if !strings.HasPrefix(gotContent, MimeJSON) {
		t.Errorf("res.Header.Get(%q) = %q, want: %q", HeaderContentType, gotContent, MimeJSON)
	}
}
