package cache

import (
	"container/list"
	"sync"
)

type entry[V any] struct {
	key   string
	value V
}

type shard[V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	elems    map[string]*list.Element
}

func newShard[V any](capacity int) *shard[V] {
	return &shard[V]{
		capacity: capacity,
		order:    list.New(),
		elems:    make(map[string]*list.Element),
	}
}

// put returns the entries evicted to make room.
func (s *shard[V]) put(key string, value V) []entry[V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.elems[key]; ok {
		elem.Value.(*entry[V]).value = value
		s.order.MoveToFront(elem)
		return nil
	}

	var evicted []entry[V]
	for s.capacity > 0 && s.order.Len() >= s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		e := s.order.Remove(oldest).(*entry[V])
		delete(s.elems, e.key)
		evicted = append(evicted, *e)
	}

	s.elems[key] = s.order.PushFront(&entry[V]{key: key, value: value})
	return evicted
}

func (s *shard[V]) get(key string, touch bool) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.elems[key]
	if !ok {
		var zero V
		return zero, false
	}
	if touch {
		s.order.MoveToFront(elem)
	}
	return elem.Value.(*entry[V]).value, true
}

func (s *shard[V]) remove(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.elems[key]
	if !ok {
		var zero V
		return zero, false
	}
	e := s.order.Remove(elem).(*entry[V])
	delete(s.elems, key)
	return e.value, true
}

func (s *shard[V]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// keys returns the keys from most to least recently used.
func (s *shard[V]) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, s.order.Len())
	for e := s.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*entry[V]).key)
	}
	return keys
}

func (s *shard[V]) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	clear(s.elems)
}
