// Package handler holds the demo endpoints served by cmd/server.
package handler

import (
	"errors"

	"github.com/cxuy/cxkit/internal/cache"
	"github.com/cxuy/cxkit/internal/eventbus"
	"github.com/cxuy/cxkit/internal/kv"
	"github.com/cxuy/cxkit/internal/platform/jwt"
	"github.com/cxuy/cxkit/internal/server"
)

const RootMessage = "Anything resource not be contain at root. "

type Deps struct {
	// Hello is created when nil.
	Hello  *Hello
	Bus    *eventbus.Bus
	Store  kv.Storage
	// Cache may be nil to read the store on every request.
	Cache  *cache.Pool[string]
	Signer jwt.Signer
}

// Routes builds the root, hello, helloworld and kv handlers.
func Routes(d Deps) ([]*server.Handler, error) {
	root := server.NewHandler("/")
	rootMsg := func() string { return RootMessage }
	err := errors.Join(
		root.Handle("", rootMsg),
		root.Handle("/root", rootMsg),
	)
	if err != nil {
		return nil, err
	}

	if d.Hello == nil {
		d.Hello = NewHello()
	}
	hello, err := d.Hello.Routes()
	if err != nil {
		return nil, err
	}

	world, err := NewWorld(d.Bus).Routes()
	if err != nil {
		return nil, err
	}

	store, err := NewKV(d.Store, d.Cache, d.Signer).Routes()
	if err != nil {
		return nil, err
	}

	return []*server.Handler{root, hello, world, store}, nil
}
