// Package eventbus delivers events to subscribers registered for the
// event's dynamic type.
package eventbus

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/cxuy/cxkit/internal/dispatch"
)

// Default is the process-wide bus.
var Default = New(dispatch.NewQueue("eventbus"))

type subscriber struct {
	id      uint64
	deliver func(event any)
}

// Bus delivers posted events in order on its queue.
type Bus struct {
	queue *dispatch.Queue

	mu     sync.RWMutex
	nextID uint64
	subs   map[reflect.Type][]subscriber
}

func New(queue *dispatch.Queue) *Bus {
	if queue == nil {
		queue = dispatch.NewQueue("eventbus")
	}
	return &Bus{
		queue: queue,
		subs:  make(map[reflect.Type][]subscriber),
	}
}

// Subscription identifies a subscriber. Cancel is safe to call more than
// once.
type Subscription struct {
	bus  *Bus
	typ  reflect.Type
	id   uint64
	once sync.Once
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.unsubscribe(s.typ, s.id)
	})
}

// Subscribe registers fn for events whose dynamic type is T.
func Subscribe[T any](bus *Bus, fn func(event T)) *Subscription {
	typ := reflect.TypeFor[T]()

	bus.mu.Lock()
	defer bus.mu.Unlock()

	id := bus.nextID
	bus.nextID++
	bus.subs[typ] = append(bus.subs[typ], subscriber{
		id: id,
		deliver: func(event any) {
			fn(event.(T))
		},
	})
	return &Subscription{bus: bus, typ: typ, id: id}
}

func (b *Bus) unsubscribe(typ reflect.Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[typ]
	for i, s := range subs {
		if s.id == id {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.subs, typ)
		return
	}
	b.subs[typ] = subs
}

// HasSubscribers reports whether events of event's type have a subscriber.
func (b *Bus) HasSubscribers(event any) bool {
	if event == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[reflect.TypeOf(event)]) > 0
}

// Post queues event for delivery to the current subscribers of its type.
// Nil events and events without subscribers are dropped.
func (b *Bus) Post(event any) error {
	if event == nil {
		return nil
	}
	typ := reflect.TypeOf(event)

	b.mu.RLock()
	subs := append([]subscriber(nil), b.subs[typ]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		slog.Debug("Event dropped without subscribers.", "type", typ.String())
		return nil
	}

	_, err := b.queue.Async(func(*dispatch.TaskContext) {
		for _, s := range subs {
			deliver(typ, s, event)
		}
	})
	if err != nil {
		return fmt.Errorf("post %s: %w", typ, err)
	}
	return nil
}

func deliver(typ reflect.Type, s subscriber, event any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event subscriber panicked.", "type", typ.String(), "subscriber", s.id, "panic", r)
		}
	}()
	s.deliver(event)
}

// Flush blocks until every event posted before the call was delivered.
func (b *Bus) Flush() error {
	return b.queue.Sync(func(*dispatch.TaskContext) {})
}

// Post queues event on the Default bus.
func Post(event any) error {
	return Default.Post(event)
}
