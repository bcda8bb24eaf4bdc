package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// Fanout sends every record to all of its handlers. Handlers added later
// also receive records of loggers derived with With or WithGroup.
type Fanout struct {
	root *fanoutRoot
	ops  []func(slog.Handler) slog.Handler
}

type fanoutRoot struct {
	mu       sync.RWMutex
	handlers []slog.Handler
}

var _ slog.Handler = (*Fanout)(nil)

func NewFanout(handlers ...slog.Handler) *Fanout {
	return &Fanout{root: &fanoutRoot{handlers: handlers}}
}

// Add registers h for all records handled from now on.
func (f *Fanout) Add(h slog.Handler) {
	if h == nil {
		return
	}
	f.root.mu.Lock()
	defer f.root.mu.Unlock()
	f.root.handlers = append(f.root.handlers, h)
}

func (f *Fanout) Len() int {
	f.root.mu.RLock()
	defer f.root.mu.RUnlock()
	return len(f.root.handlers)
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers() {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers() {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *Fanout) derive(op func(slog.Handler) slog.Handler) *Fanout {
	return &Fanout{root: f.root, ops: append(slices.Clip(f.ops), op)}
}

// handlers returns the root handlers with this Fanout's attrs and groups
// applied.
func (f *Fanout) handlers() []slog.Handler {
	f.root.mu.RLock()
	hs := slices.Clone(f.root.handlers)
	f.root.mu.RUnlock()

	if len(f.ops) == 0 {
		return hs
	}
	for i, h := range hs {
		for _, op := range f.ops {
			h = op(h)
		}
		hs[i] = h
	}
	return hs
}
