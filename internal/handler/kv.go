package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/cxuy/cxkit/internal/auth"
	"github.com/cxuy/cxkit/internal/cache"
	"github.com/cxuy/cxkit/internal/kv"
	"github.com/cxuy/cxkit/internal/platform/jwt"
	"github.com/cxuy/cxkit/internal/server"
)

const MsgStored = "successful"

var ErrEmptyKey = errors.New("key is required")

// KV exposes a storage to logged in users. Every user sees only the keys
// they wrote, stored as "<user>/<key>". A nil cache reads through to the
// storage on every request, which suits storages other processes write to.
type KV struct {
	store  kv.Storage
	cache  *cache.Pool[string]
	signer jwt.Signer
}

func NewKV(store kv.Storage, c *cache.Pool[string], signer jwt.Signer) *KV {
	return &KV{store: store, cache: c, signer: signer}
}

func (h *KV) Routes() (*server.Handler, error) {
	r := server.NewHandler("/kv")
	r.Use(auth.RequireToken(h.signer))
	err := errors.Join(
		r.Handle("/get", h.Get, server.Query("key")),
		r.Handle("/put", h.Put, server.Query("key"), server.Query("value")),
		r.Handle("/delete", h.Delete, server.Query("key")),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (h *KV) Get(ctx context.Context, key string) (string, error) {
	k, err := userKey(ctx, key)
	if err != nil {
		return "", err
	}
	if h.cache != nil {
		if v, ok := h.cache.Get(k); ok {
			return v, nil
		}
	}

	v, err := h.store.Get(ctx, k, "")
	if err != nil {
		return "", fmt.Errorf("get %s: %w", k, err)
	}
	if h.cache != nil {
		h.cache.Put(k, v)
	}
	return v, nil
}

func (h *KV) Put(ctx context.Context, key, value string) (string, error) {
	k, err := userKey(ctx, key)
	if err != nil {
		return "", err
	}
	if err := h.store.Put(ctx, k, value); err != nil {
		return "", fmt.Errorf("put %s: %w", k, err)
	}
	if h.cache != nil {
		h.cache.Put(k, value)
	}
	return MsgStored, nil
}

func (h *KV) Delete(ctx context.Context, key string) (string, error) {
	k, err := userKey(ctx, key)
	if err != nil {
		return "", err
	}
	if err := h.store.Remove(ctx, k); err != nil {
		return "", fmt.Errorf("remove %s: %w", k, err)
	}
	// Evict after the write; evicting first lets any read before the write
	// refill the cache from the old row.
	if h.cache != nil {
		h.cache.Remove(k)
	}
	return MsgStored, nil
}

func userKey(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", server.BadRequest(ErrEmptyKey)
	}
	user, err := auth.UserFromContext(ctx)
	if err != nil {
		return "", server.Unauthorized(err)
	}
	return user + "/" + key, nil
}
