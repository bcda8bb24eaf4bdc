package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cxuy/cxkit/internal/auth"
	"github.com/cxuy/cxkit/internal/pkg/web"
	"github.com/cxuy/cxkit/internal/rpc"
)

func TestHandler_Routes(t *testing.T) {
	t.Parallel()

	svc := &auth.StubAccountService{
		RegisterFunc: func(_ context.Context, username, _ string) error {
			switch username {
			case "taken":
				return auth.ErrUserExists
			case "broken":
				return errors.New("disk full")
			}
			return nil
		},
		LoginFunc: func(_ context.Context, username, password string) (string, error) {
			if username == "kpb" && password == "123" {
				return "token", nil
			}
			return "", auth.ErrInvalidCredentials
		},
	}

	routes, err := auth.NewHandler(svc).Routes()
	if err != nil {
		t.Fatalf("Routes() = %v", err)
	}

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   rpc.BusinessCode
		wantData   string
	}{
		{"login", "/login?username=kpb&pwd=123", http.StatusOK, rpc.Successful, "token"},
		{"bad login", "/login?username=kpb&pwd=1", http.StatusUnauthorized, rpc.Failure, ""},
		{"missing pwd", "/login?username=kpb", http.StatusBadRequest, rpc.Failure, ""},
		{"register", "/login/register?username=ann&pwd=1", http.StatusOK, rpc.Successful, auth.MsgRegistered},
		{"register taken", "/login/register?username=taken&pwd=1", http.StatusConflict, rpc.Failure, ""},
		{"register error", "/login/register?username=broken&pwd=1", http.StatusInternalServerError, rpc.Failure, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, http.NoBody))

			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Errorf("res.StatusCode = %d, want: %d", res.StatusCode, tt.wantStatus)
			}
			env := web.DecodeEnvelope[string](t, res)
			if env.Code != tt.wantCode {
				t.Errorf("env.Code = %d, want: %d", env.Code, tt.wantCode)
			}
			if env.Data != tt.wantData {
				t.Errorf("env.Data = %q, want: %q", env.Data, tt.wantData)
			}
		})
	}
}
