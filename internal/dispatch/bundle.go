package dispatch

import "sync"

// Bundle carries typed extras alongside a task. It is safe for concurrent use.
type Bundle struct {
	mu    sync.RWMutex
	items map[string]any
}

func NewBundle() *Bundle {
	return &Bundle{items: make(map[string]any)}
}

func (b *Bundle) Put(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.items == nil {
		b.items = make(map[string]any)
	}
	b.items[key] = value
}

func (b *Bundle) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.items[key]
	return v, ok
}

func (b *Bundle) Int(key string, def int) int {
	return typed(b, key, def)
}

func (b *Bundle) Int64(key string, def int64) int64 {
	return typed(b, key, def)
}

func (b *Bundle) Float64(key string, def float64) float64 {
	return typed(b, key, def)
}

func (b *Bundle) Bool(key string, def bool) bool {
	return typed(b, key, def)
}

func (b *Bundle) String(key string, def string) string {
	return typed(b, key, def)
}

func (b *Bundle) Contains(key string) bool {
	_, ok := b.Get(key)
	return ok
}

func (b *Bundle) Remove(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, key)
}

func (b *Bundle) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.items)
}

func typed[T any](b *Bundle, key string, def T) T {
	if b == nil {
		return def
	}
	v, ok := b.Get(key)
	if !ok {
		return def
	}
	t, ok := v.(T)
	if !ok {
		return def
	}
	return t
}
