package auth

import (
	"context"
	"errors"
)

type StubAccountService struct {
	RegisterFunc func(ctx context.Context, username, password string) error
	LoginFunc    func(ctx context.Context, username, password string) (string, error)
}

var _ AccountService = (*StubAccountService)(nil)

func (s *StubAccountService) Register(ctx context.Context, username, password string) error {
	if s.RegisterFunc == nil {
		return errors.New("Register not implemented by stub")
	}
	return s.RegisterFunc(ctx, username, password)
}

func (s *StubAccountService) Login(ctx context.Context, username, password string) (string, error) {
	if s.LoginFunc == nil {
		return "", errors.New("Login not implemented by stub")
	}
	return s.LoginFunc(ctx, username, password)
}
