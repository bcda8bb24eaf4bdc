package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cxuy/cxkit/internal/auth"
	"github.com/cxuy/cxkit/internal/config"
	"github.com/cxuy/cxkit/internal/kv"
	"github.com/cxuy/cxkit/internal/platform/hash"
	"github.com/cxuy/cxkit/internal/platform/jwt"
)

var testArgon2 = &config.Argon2{Memory: 8 * 1024, Iterations: 1, Threads: 1, SaltLength: 16, KeyLength: 32}

func newAccounts(t *testing.T) (*auth.Accounts, jwt.Signer) {
	t.Helper()
	signer := jwt.NewGolangJWTSigner(&config.JWT{Issuer: "test"}, "secret")
	accounts := auth.NewAccounts(kv.NewMemoryStorage(), hash.NewArgon2Hasher(testArgon2, "pepper"), signer, time.Minute)
	return accounts, signer
}

func TestAccounts_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	accounts, signer := newAccounts(t)
	ctx := context.Background()

	if err := accounts.Register(ctx, "kpb", "123"); err != nil {
		t.Fatalf("accounts.Register() = %v", err)
	}

	token, err := accounts.Login(ctx, "kpb", "123")
	if err != nil {
		t.Fatalf("accounts.Login() = %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("signer.Verify() = %v", err)
	}
	if claims.Subject != "kpb" {
		t.Errorf("claims.Subject = %q, want: %q", claims.Subject, "kpb")
	}
}

func TestAccounts_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"duplicate", "kpb", "456", auth.ErrUserExists},
		{"empty username", "", "456", auth.ErrEmptyCredentials},
		{"empty password", "ann", "", auth.ErrEmptyCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accounts, _ := newAccounts(t)
			if err := accounts.Register(context.Background(), "kpb", "123"); err != nil {
				t.Fatal(err)
			}

			if err := accounts.Register(context.Background(), tt.username, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("accounts.Register() = %v, want: %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccounts_LoginFails(t *testing.T) {
	t.Parallel()

	accounts, _ := newAccounts(t)
	if err := accounts.Register(context.Background(), "kpb", "123"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, username, password string
	}{
		{"wrong password", "kpb", "124"},
		{"unknown user", "ann", "123"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, err := accounts.Login(context.Background(), tt.username, tt.password)
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				t.Errorf("accounts.Login() = %v, want: %v", err, auth.ErrInvalidCredentials)
			}
			if token != "" {
				t.Errorf("token = %q, want empty", token)
			}
		})
	}
}

func TestAccounts_StorageError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	store := &kv.StubStorage{
		ContainsFunc: func(context.Context, string) (bool, error) { return false, boom },
		GetFunc:      func(context.Context, string, string) (string, error) { return "", boom },
	}
	accounts := auth.NewAccounts(store, &hash.StubHasher{}, &jwt.StubSigner{}, time.Minute)

	if err := accounts.Register(context.Background(), "kpb", "123"); !errors.Is(err, boom) {
		t.Errorf("accounts.Register() = %v, want: %v", err, boom)
	}
	if _, err := accounts.Login(context.Background(), "kpb", "123"); !errors.Is(err, boom) {
		t.Errorf("accounts.Login() = %v, want: %v", err, boom)
	}
}
