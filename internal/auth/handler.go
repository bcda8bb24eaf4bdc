package auth

import (
	"context"
	"errors"

	"github.com/cxuy/cxkit/internal/server"
)

type Handler struct {
	svc AccountService
}

func NewHandler(svc AccountService) *Handler {
	return &Handler{svc: svc}
}

// Routes returns the login endpoints:
//
//	GET /login?username=&pwd=           -> token
//	GET /login/register?username=&pwd=  -> "successful"
func (h *Handler) Routes() (*server.Handler, error) {
	r := server.NewHandler("/login")
	err := errors.Join(
		r.Handle("", h.Login, server.Query("username"), server.Query("pwd")),
		r.Handle("/register", h.Register, server.Query("username"), server.Query("pwd")),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (h *Handler) Login(ctx context.Context, username, password string) (string, error) {
	token, err := h.svc.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return "", server.Unauthorized(err)
		}
		return "", err
	}
	return token, nil
}

func (h *Handler) Register(ctx context.Context, username, password string) (string, error) {
	if err := h.svc.Register(ctx, username, password); err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			return "", server.Conflict(err)
		case errors.Is(err, ErrEmptyCredentials):
			return "", server.BadRequest(err)
		}
		return "", err
	}
	return MsgRegistered, nil
}
