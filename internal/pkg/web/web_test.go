package web_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cxuy/cxkit/internal/pkg/web"
	"github.com/cxuy/cxkit/internal/rpc"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"real ip header", map[string]string{"X-Real-IP": "10.0.0.1"}, "1.1.1.1:80", "10.0.0.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "10.0.0.2, 10.0.0.3"}, "1.1.1.1:80", "10.0.0.2"},
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
		{"remote addr without port", nil, "pipe", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := web.ClientIP(req); got != tt.want {
				t.Errorf("web.ClientIP() = %q, want: %q", got, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer xyz", "xyz"},
		{"Basic abc", ""},
		{"Bearer ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set(web.HeaderAuthorization, tt.header)
		}
		if got := web.BearerToken(req); got != tt.want {
			t.Errorf("web.BearerToken(%q) = %q, want: %q", tt.header, got, tt.want)
		}
	}
}

func TestFailAndOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	web.OK(rec, "done", []int{1, 2})
	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("res.StatusCode = %d, want: %d", res.StatusCode, http.StatusOK)
	}
	web.AssertContentType(t, res)
	env := web.DecodeEnvelope[[]int](t, res)
	if env.Code != rpc.Successful || env.Message != "done" || len(env.Data) != 2 {
		t.Errorf("env = %+v, want a successful envelope with 2 items", env)
	}

	rec = httptest.NewRecorder()
	web.ServerError(rec, errors.New("db down"))
	res = rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("res.StatusCode = %d, want: %d", res.StatusCode, http.StatusInternalServerError)
	}
	failure := web.DecodeEnvelope[any](t, res)
	if failure.Code != rpc.Failure || failure.Data != nil {
		t.Errorf("failure = %+v, want a failure envelope without data", failure)
	}
}
