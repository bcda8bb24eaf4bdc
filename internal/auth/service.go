package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cxuy/cxkit/internal/kv"
	"github.com/cxuy/cxkit/internal/platform/hash"
	"github.com/cxuy/cxkit/internal/platform/jwt"
)

var (
	ErrUserExists         = errors.New("auth service: user already exists")
	ErrInvalidCredentials = errors.New("auth service: invalid username or password")
	ErrEmptyCredentials   = errors.New("auth service: username and password are required")
)

// Audience is the audience of the tokens issued on login.
const Audience = "cxkit"

const accountKeyPrefix = "account:"

type AccountService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (token string, err error)
}

// Accounts keeps password hashes in a kv.Storage under "account:<username>".
type Accounts struct {
	store  kv.Storage
	hasher hash.Hasher
	signer jwt.Signer
	ttl    time.Duration

	// Serializes the exists check and the write of Register.
	mu sync.Mutex
}

var _ AccountService = (*Accounts)(nil)

func NewAccounts(store kv.Storage, hasher hash.Hasher, signer jwt.Signer, ttl time.Duration) *Accounts {
	return &Accounts{
		store:  store,
		hasher: hasher,
		signer: signer,
		ttl:    ttl,
	}
}

type credentials struct {
	username, password string
}

func (c credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.username),
		slog.String("password", "*"),
	)
}

func (a *Accounts) Register(ctx context.Context, username, password string) error {
	creds := credentials{username, password}
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := accountKeyPrefix + username
	exists, err := a.store.Contains(ctx, key)
	if err != nil {
		return fmt.Errorf("check account %s: %w", username, err)
	}
	if exists {
		return ErrUserExists
	}

	hashed, err := a.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hasher hash: %w", err)
	}

	if err := a.store.Put(ctx, key, hashed); err != nil {
		return fmt.Errorf("store account %s: %w", username, err)
	}

	slog.Info("Account registered.", "credentials", creds)
	return nil
}

// Login returns a signed token for the user when password matches.
func (a *Accounts) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	hashed, err := a.store.Get(ctx, accountKeyPrefix+username, "")
	if err != nil {
		return "", fmt.Errorf("load account %s: %w", username, err)
	}
	if hashed == "" {
		return "", ErrInvalidCredentials
	}

	ok, err := a.hasher.Verify(password, hashed)
	if err != nil {
		return "", fmt.Errorf("hasher verify: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := a.signer.Sign(username, []string{Audience}, a.ttl)
	if err != nil {
		return "", fmt.Errorf("sign token for %s: %w", username, err)
	}
	return token, nil
}
