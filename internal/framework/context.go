// Package framework holds the process-wide Context: the root directory that
// storage components write under, the build mode and the lifecycle that
// components observe to persist state before exit.
package framework

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/cxuy/cxkit/internal/lifecycle"
)

type BuildMode int

const (
	Debug BuildMode = iota
	Release
)

func (m BuildMode) String() string {
	if m == Release {
		return "release"
	}
	return "debug"
}

type Hook func(ctx *Context)

type Context struct {
	lifecycle.Registry

	rootDir string
	mode    BuildMode

	mu        sync.Mutex
	onCreate  []Hook
	onDestroy []Hook
	destroyed bool
}

var _ lifecycle.Owner = (*Context)(nil)

// New returns a Context rooted at rootDir. An empty rootDir means the
// current working directory.
func New(rootDir string, mode BuildMode) (*Context, error) {
	if rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		rootDir = wd
	}

	c := &Context{
		rootDir: rootDir,
		mode:    mode,
	}
	c.Bind(c)
	c.SetState(lifecycle.Inited)
	return c, nil
}

func (c *Context) RootDir() string {
	return c.rootDir
}

func (c *Context) Mode() BuildMode {
	return c.mode
}

func (c *Context) OnCreate(h Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCreate = append(c.onCreate, h)
}

func (c *Context) OnDestroy(h Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDestroy = append(c.onDestroy, h)
}

func (c *Context) Create() {
	c.SetState(lifecycle.WillCreate)
	c.mu.Lock()
	hooks := append([]Hook(nil), c.onCreate...)
	c.mu.Unlock()
	for _, h := range hooks {
		h(c)
	}
	c.SetState(lifecycle.DidCreate)
	slog.Debug("Framework context created.", "root_dir", c.rootDir, "mode", c.mode)
}

// Destroy runs the destroy hooks and moves the context to DidDestroy. Only
// the first call has an effect.
func (c *Context) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	hooks := append([]Hook(nil), c.onDestroy...)
	c.mu.Unlock()

	c.SetState(lifecycle.WillDestroy)
	for _, h := range hooks {
		h(c)
	}
	c.SetState(lifecycle.DidDestroy)
	slog.Debug("Framework context destroyed.", "root_dir", c.rootDir)
}
