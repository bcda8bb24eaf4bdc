// Package kv provides string key-value storages: a JSON file per namespace
// for single-process use and a Postgres table shared between processes.
package kv

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("kv: storage closed")

// Storage is a string key-value store. Empty keys are ignored: Put and
// Remove do nothing, Get returns the default and Contains reports false.
type Storage interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key, def string) (string, error)
	Remove(ctx context.Context, key string) error
	RemoveAll(ctx context.Context) error
	Contains(ctx context.Context, key string) (bool, error)
}
