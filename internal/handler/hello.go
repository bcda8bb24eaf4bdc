package handler

import (
	"errors"

	"github.com/cxuy/cxkit/internal/livedata"
	"github.com/cxuy/cxkit/internal/server"
)

type Hello struct {
	// Last holds the last name greeted.
	Last *livedata.LiveData[string]
}

func NewHello() *Hello {
	return &Hello{Last: livedata.NewMutable[string]()}
}

func (h *Hello) Routes() (*server.Handler, error) {
	r := server.NewHandler("/hello")
	err := errors.Join(
		r.Handle("/hello", h.World),
		r.Handle("", h.Greet, server.Query("name")),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (h *Hello) World() string {
	return "hello world"
}

func (h *Hello) Greet(name string) string {
	h.Last.Post(name)
	return "hello, " + name
}
