package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cxuy/cxkit/internal/fileio"
	"github.com/cxuy/cxkit/internal/lifecycle"
)

var ErrStorageNotFound = errors.New("kv: storage not found")

// Provider hands out named storages. File stores are opened on first use
// under rootDir and flushed when the lifecycle owner is destroyed.
type Provider struct {
	rootDir   string
	owner     lifecycle.Owner
	files     *fileio.Manager
	threshold int

	mu       sync.Mutex
	storages map[string]Storage
}

func NewProvider(rootDir string, owner lifecycle.Owner, files *fileio.Manager, flushThreshold int) *Provider {
	if files == nil {
		files = fileio.NewManager()
	}
	if flushThreshold <= 0 {
		flushThreshold = DefaultFlushThreshold
	}
	return &Provider{
		rootDir:   rootDir,
		owner:     owner,
		files:     files,
		threshold: flushThreshold,
		storages:  make(map[string]Storage),
	}
}

// Add registers s under name, replacing any previous storage.
func (p *Provider) Add(name string, s Storage) {
	if name == "" || s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.storages[name] = s
}

func (p *Provider) Get(name string) (Storage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.storages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStorageNotFound, name)
	}
	return s, nil
}

func (p *Provider) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.storages, name)
}

// OpenFile returns the file store registered under name, opening it first
// if needed.
func (p *Provider) OpenFile(name string) (Storage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.storages[name]; ok {
		return s, nil
	}

	fs, err := OpenFile(p.rootDir, name, WithFileManager(p.files), WithFlushThreshold(p.threshold))
	if err != nil {
		return nil, err
	}
	fs.FlushOn(p.owner)
	p.storages[name] = fs
	slog.Debug("Opened kv store.", "store", name, "path", fs.Path())
	return fs, nil
}

// Close flushes and closes every file store.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	storages := make([]Storage, 0, len(p.storages))
	for _, s := range p.storages {
		storages = append(storages, s)
	}
	p.mu.Unlock()

	var errs []error
	for _, s := range storages {
		if fs, ok := s.(*FileStore); ok {
			if err := fs.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
