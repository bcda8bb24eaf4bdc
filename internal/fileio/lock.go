package fileio

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// A writer takes every slot, a reader takes one.
const maxReaders = 1 << 20

type pathLock struct {
	sem  *semaphore.Weighted
	refs int
}

type lockTable struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*pathLock)}
}

// acquire locks path for reading or writing. The returned func releases the
// lock and drops the entry once nobody references it.
func (t *lockTable) acquire(ctx context.Context, path string, write bool) (func(), error) {
	t.mu.Lock()
	l, ok := t.locks[path]
	if !ok {
		l = &pathLock{sem: semaphore.NewWeighted(maxReaders)}
		t.locks[path] = l
	}
	l.refs++
	t.mu.Unlock()

	var n int64 = 1
	if write {
		n = maxReaders
	}
	if err := l.sem.Acquire(ctx, n); err != nil {
		t.unref(path, l)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.sem.Release(n)
			t.unref(path, l)
		})
	}, nil
}

func (t *lockTable) unref(path string, l *pathLock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, path)
	}
}

func (t *lockTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
