// Package cache provides a sharded LRU pool keyed by string with removal
// listeners.
package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

type Reason int

const (
	Removed Reason = iota
	Evicted
)

func (r Reason) String() string {
	if r == Evicted {
		return "evicted"
	}
	return "removed"
}

// RemoveListener is told about entries leaving a pool.
type RemoveListener[V any] interface {
	OnRemove(key string, value V, reason Reason)
}

// ListenerFunc adapts a function to a RemoveListener. Register it by pointer
// so it can be compared and removed later.
type ListenerFunc[V any] func(key string, value V, reason Reason)

func (f *ListenerFunc[V]) OnRemove(key string, value V, reason Reason) {
	(*f)(key, value, reason)
}

func NewListener[V any](fn func(key string, value V, reason Reason)) *ListenerFunc[V] {
	f := ListenerFunc[V](fn)
	return &f
}

const DefaultShards = 16

type Option func(*options)

type options struct {
	shards   int
	capacity int
}

// WithShards sets the number of shards. Values below 1 mean one shard.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = max(n, 1)
	}
}

// WithCapacity bounds the number of entries. Zero means unbounded. The bound
// is split evenly across shards, so eviction is least recently used per
// shard.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = max(n, 0)
	}
}

type Pool[V any] struct {
	shards []*shard[V]

	lmu       sync.RWMutex
	listeners []RemoveListener[V]
}

func NewPool[V any](opts ...Option) *Pool[V] {
	o := options{shards: DefaultShards}
	for _, opt := range opts {
		opt(&o)
	}

	perShard := 0
	if o.capacity > 0 {
		perShard = (o.capacity + o.shards - 1) / o.shards
	}

	p := &Pool[V]{shards: make([]*shard[V], o.shards)}
	for i := range p.shards {
		p.shards[i] = newShard[V](perShard)
	}
	return p
}

func (p *Pool[V]) AddRemoveListener(l RemoveListener[V]) {
	if l == nil {
		return
	}
	p.lmu.Lock()
	defer p.lmu.Unlock()
	for _, existing := range p.listeners {
		if existing == l {
			return
		}
	}
	p.listeners = append(p.listeners, l)
}

func (p *Pool[V]) RemoveRemoveListener(l RemoveListener[V]) {
	p.lmu.Lock()
	defer p.lmu.Unlock()
	for i, existing := range p.listeners {
		if existing == l {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

// Put stores value under key and reports whether an older entry was
// evicted to make room.
func (p *Pool[V]) Put(key string, value V) bool {
	evicted := p.shardFor(key).put(key, value)
	for _, e := range evicted {
		p.notify(nil, e.key, e.value, Evicted)
	}
	return len(evicted) > 0
}

// Get returns the value under key and marks it as recently used.
func (p *Pool[V]) Get(key string) (V, bool) {
	return p.shardFor(key).get(key, true)
}

// Peek returns the value under key without touching its recency.
func (p *Pool[V]) Peek(key string) (V, bool) {
	return p.shardFor(key).get(key, false)
}

func (p *Pool[V]) Contains(key string) bool {
	_, ok := p.Peek(key)
	return ok
}

// Remove deletes key and notifies the registered listeners.
func (p *Pool[V]) Remove(key string) (V, bool) {
	return p.RemoveWith(key, nil)
}

// RemoveWith deletes key and notifies the registered listeners plus l,
// unless l is already registered.
func (p *Pool[V]) RemoveWith(key string, l RemoveListener[V]) (V, bool) {
	v, ok := p.shardFor(key).remove(key)
	if ok {
		p.notify(l, key, v, Removed)
	}
	return v, ok
}

func (p *Pool[V]) Len() int {
	n := 0
	for _, s := range p.shards {
		n += s.len()
	}
	return n
}

func (p *Pool[V]) Keys() []string {
	keys := make([]string, 0, p.Len())
	for _, s := range p.shards {
		keys = append(keys, s.keys()...)
	}
	return keys
}

// Purge drops every entry without notifying listeners.
func (p *Pool[V]) Purge() {
	var wg sync.WaitGroup
	wg.Add(len(p.shards))
	for _, s := range p.shards {
		go func() {
			defer wg.Done()
			s.purge()
		}()
	}
	wg.Wait()
}

func (p *Pool[V]) shardFor(key string) *shard[V] {
	return p.shards[xxhash.Sum64String(key)%uint64(len(p.shards))]
}

func (p *Pool[V]) notify(extra RemoveListener[V], key string, value V, reason Reason) {
	p.lmu.RLock()
	listeners := make([]RemoveListener[V], len(p.listeners), len(p.listeners)+1)
	copy(listeners, p.listeners)
	p.lmu.RUnlock()

	if extra != nil {
		registered := false
		for _, l := range listeners {
			if l == extra {
				registered = true
				break
			}
		}
		if !registered {
			listeners = append(listeners, extra)
		}
	}

	for _, l := range listeners {
		l.OnRemove(key, value, reason)
	}
}
