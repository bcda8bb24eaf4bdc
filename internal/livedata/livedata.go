// Package livedata holds observable values whose observers are bound to a
// lifecycle owner and dropped when the owner is destroyed.
package livedata

import (
	"log/slog"
	"sync"

	"github.com/cxuy/cxkit/internal/dispatch"
	"github.com/cxuy/cxkit/internal/lifecycle"
)

const noVersion = -1

type observer[T any] struct {
	fn   func(T)
	seen int64
	lc   *lifecycle.ObserverFunc
}

type Option func(*settings)

type settings struct {
	queue *dispatch.Queue
}

// WithQueue delivers values on q instead of dispatch.Main.
func WithQueue(q *dispatch.Queue) Option {
	return func(s *settings) {
		if q != nil {
			s.queue = q
		}
	}
}

// LiveData is a versioned value. Every Post bumps the version and each
// observer is called at most once per version, in order, on the delivery
// queue.
type LiveData[T any] struct {
	queue *dispatch.Queue

	mu        sync.Mutex
	value     T
	version   int64
	observers map[any]*observer[T]
}

// New returns a LiveData holding initial, which new observers receive.
func New[T any](initial T, opts ...Option) *LiveData[T] {
	ld := newLiveData[T](opts)
	ld.value = initial
	ld.version = 0
	return ld
}

// NewMutable returns a LiveData without a value. Observers are not called
// until the first Post.
func NewMutable[T any](opts ...Option) *LiveData[T] {
	return newLiveData[T](opts)
}

func newLiveData[T any](opts []Option) *LiveData[T] {
	s := settings{queue: dispatch.Main}
	for _, opt := range opts {
		opt(&s)
	}
	return &LiveData[T]{
		queue:     s.queue,
		version:   noVersion,
		observers: make(map[any]*observer[T]),
	}
}

// Value returns the latest value and whether one was ever set.
func (ld *LiveData[T]) Value() (T, bool) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.value, ld.version != noVersion
}

func (ld *LiveData[T]) Version() int64 {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.version
}

// Observe binds fn to owner, replacing the previous observer of owner. fn
// receives the current value if there is one. Owners already destroyed are
// ignored.
func (ld *LiveData[T]) Observe(owner lifecycle.Owner, fn func(T)) {
	if owner == nil || fn == nil {
		return
	}
	if owner.State() == lifecycle.DidDestroy {
		return
	}

	o := &observer[T]{fn: fn, seen: noVersion}
	o.lc = lifecycle.NewObserverFunc(func(_ lifecycle.Owner, state lifecycle.State) {
		if state == lifecycle.DidDestroy {
			ld.RemoveObservers(owner)
		}
	})

	ld.mu.Lock()
	prev := ld.observers[owner]
	ld.observers[owner] = o
	ld.mu.Unlock()

	if prev != nil {
		owner.RemoveObserver(prev.lc)
	}
	owner.AddObserver(o.lc)
	ld.schedule([]*observer[T]{o})
}

// ObserveForever registers fn without an owner. The returned func removes it.
func (ld *LiveData[T]) ObserveForever(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	key := new(int)
	o := &observer[T]{fn: fn, seen: noVersion}

	ld.mu.Lock()
	ld.observers[key] = o
	ld.mu.Unlock()

	ld.schedule([]*observer[T]{o})
	return func() {
		ld.mu.Lock()
		defer ld.mu.Unlock()
		delete(ld.observers, key)
	}
}

// RemoveObservers drops the observer bound to owner.
func (ld *LiveData[T]) RemoveObservers(owner lifecycle.Owner) {
	ld.mu.Lock()
	o, ok := ld.observers[owner]
	delete(ld.observers, owner)
	ld.mu.Unlock()

	if ok {
		owner.RemoveObserver(o.lc)
	}
}

func (ld *LiveData[T]) HasObservers() bool {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return len(ld.observers) > 0
}

// Post sets v as the new value and schedules delivery to all observers.
func (ld *LiveData[T]) Post(v T) {
	ld.mu.Lock()
	ld.value = v
	ld.version++
	observers := make([]*observer[T], 0, len(ld.observers))
	for _, o := range ld.observers {
		observers = append(observers, o)
	}
	ld.mu.Unlock()

	ld.schedule(observers)
}

func (ld *LiveData[T]) schedule(observers []*observer[T]) {
	if len(observers) == 0 {
		return
	}
	_, err := ld.queue.Async(func(*dispatch.TaskContext) {
		for _, o := range observers {
			ld.considerNotify(o)
		}
	})
	if err != nil {
		slog.Warn("LiveData delivery was not scheduled.", "queue", ld.queue.Name(), "error", err)
	}
}

func (ld *LiveData[T]) considerNotify(o *observer[T]) {
	ld.mu.Lock()
	if !ld.isActive(o) || ld.version == noVersion || o.seen >= ld.version {
		ld.mu.Unlock()
		return
	}
	o.seen = ld.version
	value := ld.value
	ld.mu.Unlock()

	o.fn(value)
}

func (ld *LiveData[T]) isActive(o *observer[T]) bool {
	for _, existing := range ld.observers {
		if existing == o {
			return true
		}
	}
	return false
}
