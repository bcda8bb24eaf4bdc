package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cxuy/cxkit/internal/dispatch"
	"github.com/cxuy/cxkit/internal/fileio"
	"github.com/cxuy/cxkit/internal/lifecycle"
)

const (
	DefaultFlushThreshold = 10

	fileDir = "simple_kv"
	fileExt = ".kv"
)

// FileStore keeps a namespace in memory and persists it as a JSON object.
// The file is loaded in the background; reads wait for the load while
// writes apply immediately and win over loaded values.
type FileStore struct {
	name      string
	path      string
	files     *fileio.Manager
	threshold int

	// flushMu orders flushes so a newer snapshot is never overwritten by an
	// older one.
	flushMu sync.Mutex

	mu      sync.Mutex
	data    map[string]string
	touched map[string]struct{} // keys written before the load merged, nil after
	cleared bool
	pending int
	closed  bool

	loaded chan struct{}

	observer *lifecycle.ObserverFunc
	owner    lifecycle.Owner
}

var _ Storage = (*FileStore)(nil)

type FileOption func(*FileStore)

// WithFlushThreshold sets the number of writes after which the store is
// flushed. Values below 1 flush on every write.
func WithFlushThreshold(n int) FileOption {
	return func(s *FileStore) {
		s.threshold = max(n, 1)
	}
}

// WithFileManager shares a file manager between stores.
func WithFileManager(m *fileio.Manager) FileOption {
	return func(s *FileStore) {
		if m != nil {
			s.files = m
		}
	}
}

// OpenFile opens the store named name under rootDir and starts loading it
// on the IO queue.
func OpenFile(rootDir, name string, opts ...FileOption) (*FileStore, error) {
	if name == "" {
		return nil, errors.New("kv: empty store name")
	}

	s := &FileStore{
		name:      name,
		path:      filepath.Join(rootDir, fileDir, name+fileExt),
		threshold: DefaultFlushThreshold,
		data:      make(map[string]string),
		touched:   make(map[string]struct{}),
		loaded:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.files == nil {
		s.files = fileio.NewManager()
	}

	if _, err := dispatch.IO.Async(func(*dispatch.TaskContext) { s.load() }); err != nil {
		s.load()
	}
	return s, nil
}

func (s *FileStore) Name() string {
	return s.name
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() {
	defer close(s.loaded)
	defer func() {
		s.mu.Lock()
		s.touched = nil
		s.mu.Unlock()
	}()

	raw, err := s.files.Read(context.Background(), s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		slog.Error("Failed to load kv store.", "store", s.name, "path", s.path, "error", err)
		return
	}

	var stored map[string]string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &stored); err != nil {
			slog.Error("Failed to decode kv store.", "store", s.name, "path", s.path, "error", err)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleared {
		return
	}
	for k, v := range stored {
		if _, ok := s.touched[k]; ok {
			continue
		}
		s.data[k] = v
	}
}

func (s *FileStore) waitLoaded(ctx context.Context) error {
	select {
	case <-s.loaded:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for %s to load: %w", s.name, ctx.Err())
	}
}

func (s *FileStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return nil
	}
	return s.mutate(ctx, func() {
		s.data[key] = value
		s.touch(key)
	})
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.mutate(ctx, func() {
		delete(s.data, key)
		s.touch(key)
	})
}

func (s *FileStore) touch(key string) {
	if s.touched != nil {
		s.touched[key] = struct{}{}
	}
}

func (s *FileStore) RemoveAll(ctx context.Context) error {
	return s.mutate(ctx, func() {
		clear(s.data)
		s.cleared = true
	})
}

func (s *FileStore) mutate(ctx context.Context, fn func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	fn()
	s.pending++
	due := s.pending >= s.threshold
	s.mu.Unlock()

	if due {
		return s.Flush(ctx)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key, def string) (string, error) {
	if key == "" {
		return def, nil
	}
	if err := s.waitLoaded(ctx); err != nil {
		return def, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *FileStore) Contains(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	if err := s.waitLoaded(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok, nil
}

// Snapshot returns a copy of all entries.
func (s *FileStore) Snapshot(ctx context.Context) (map[string]string, error) {
	if err := s.waitLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

// Flush writes the entries to disk if anything changed since the last flush.
func (s *FileStore) Flush(ctx context.Context) error {
	if err := s.waitLoaded(ctx); err != nil {
		return err
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if s.pending == 0 {
		s.mu.Unlock()
		return nil
	}
	raw, err := json.Marshal(s.data)
	written := s.pending
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.name, err)
	}

	if err := s.files.Write(ctx, s.path, raw); err != nil {
		return fmt.Errorf("flush %s: %w", s.name, err)
	}

	s.mu.Lock()
	s.pending -= written
	s.mu.Unlock()
	slog.Debug("Flushed kv store.", "store", s.name, "path", s.path, "bytes", len(raw))
	return nil
}

// FlushOn flushes the store once owner reaches lifecycle.DidDestroy.
func (s *FileStore) FlushOn(owner lifecycle.Owner) {
	if owner == nil {
		return
	}
	var obs *lifecycle.ObserverFunc
	obs = lifecycle.NewObserverFunc(func(o lifecycle.Owner, state lifecycle.State) {
		if state != lifecycle.DidDestroy {
			return
		}
		if err := s.Flush(context.Background()); err != nil {
			slog.Error("Failed to flush kv store on destroy.", "store", s.name, "error", err)
		}
		o.RemoveObserver(obs)
	})

	s.mu.Lock()
	s.observer = obs
	s.owner = owner
	s.mu.Unlock()
	owner.AddObserver(obs)
}

// Close flushes pending changes. Later writes fail with ErrClosed.
func (s *FileStore) Close(ctx context.Context) error {
	err := s.Flush(ctx)

	s.mu.Lock()
	s.closed = true
	owner, obs := s.owner, s.observer
	s.owner, s.observer = nil, nil
	s.mu.Unlock()

	if owner != nil && obs != nil {
		owner.RemoveObserver(obs)
	}
	return err
}
