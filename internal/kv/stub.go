package kv

import (
	"context"
	"errors"
	"sync"
)

type StubStorage struct {
	PutFunc       func(ctx context.Context, key, value string) error
	GetFunc       func(ctx context.Context, key, def string) (string, error)
	RemoveFunc    func(ctx context.Context, key string) error
	RemoveAllFunc func(ctx context.Context) error
	ContainsFunc  func(ctx context.Context, key string) (bool, error)
}

var _ Storage = &StubStorage{}

func (s *StubStorage) Put(ctx context.Context, key, value string) error {
	if s.PutFunc == nil {
		return errors.New("Put() not implemented by stub")
	}
	return s.PutFunc(ctx, key, value)
}

func (s *StubStorage) Get(ctx context.Context, key, def string) (string, error) {
	if s.GetFunc == nil {
		return def, errors.New("Get() not implemented by stub")
	}
	return s.GetFunc(ctx, key, def)
}

func (s *StubStorage) Remove(ctx context.Context, key string) error {
	if s.RemoveFunc == nil {
		return errors.New("Remove() not implemented by stub")
	}
	return s.RemoveFunc(ctx, key)
}

func (s *StubStorage) RemoveAll(ctx context.Context) error {
	if s.RemoveAllFunc == nil {
		return errors.New("RemoveAll() not implemented by stub")
	}
	return s.RemoveAllFunc(ctx)
}

func (s *StubStorage) Contains(ctx context.Context, key string) (bool, error) {
	if s.ContainsFunc == nil {
		return false, errors.New("Contains() not implemented by stub")
	}
	return s.ContainsFunc(ctx, key)
}

// MemoryStorage is an in-memory Storage for tests.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

var _ Storage = &MemoryStorage{}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key != "" {
		m.data[key] = value
	}
	return nil
}

func (m *MemoryStorage) Get(_ context.Context, key, def string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return def, nil
}

func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStorage) RemoveAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
	return nil
}

func (m *MemoryStorage) Contains(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}
