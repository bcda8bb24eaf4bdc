// Package server serves JSON endpoints registered on Handlers. Every reply is
// an rpc.Envelope.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cxuy/cxkit/internal/lifecycle"
	"github.com/cxuy/cxkit/internal/pkg/web"
	"github.com/cxuy/cxkit/internal/platform/router"
	"github.com/cxuy/cxkit/internal/platform/validation"
	"github.com/cxuy/cxkit/internal/rpc"
)

const (
	DefaultPort           = 5867
	DefaultMaxPortRetries = 10
)

var (
	ErrDuplicatePath = errors.New("server: path already registered")
	ErrStopped       = errors.New("server: stopped")
	ErrNoPort        = errors.New("server: no free port")
)

type Config struct {
	Host string
	// Port is the first port tried. Zero picks a free port.
	Port int
	// MaxPortRetries is the number of ports tried, counting up from Port.
	MaxPortRetries  int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

type Server struct {
	lifecycle.Registry

	cfg       Config
	router    router.Router
	validator validation.Validator

	mu       sync.Mutex
	handlers []*Handler
	paths    map[string]*Handler
	mounted  bool
	srv      *http.Server
	port     int
	ready    chan struct{}
	stop     context.CancelFunc
	stopping bool
	stopped  chan struct{}
}

var _ lifecycle.Owner = (*Server)(nil)

// New returns a server routing with r. Middlewares are applied to every
// request, in order, including those for unknown paths.
func New(cfg Config, r router.Router, v validation.Validator, middlewares ...router.Middleware) *Server {
	if cfg.MaxPortRetries < 1 {
		cfg.MaxPortRetries = 1
	}
	for _, mw := range middlewares {
		r.Use(mw)
	}

	s := &Server{
		cfg:       cfg,
		router:    r,
		validator: v,
		paths:     make(map[string]*Handler),
		ready:     make(chan struct{}),
	}
	s.Bind(s)
	s.SetState(lifecycle.Inited)
	return s
}

// Register adds handlers. Handlers registered after Start are mounted
// immediately.
func (s *Server) Register(handlers ...*Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range handlers {
		for _, p := range h.Paths() {
			if owner, ok := s.paths[p]; ok && owner != h {
				return fmt.Errorf("%w: %s", ErrDuplicatePath, p)
			}
		}
	}

	for _, h := range handlers {
		if h.validator == nil {
			h.SetValidator(s.validator)
		}
		if h.maxBodyBytes == 0 {
			h.SetMaxBodyBytes(s.cfg.MaxBodyBytes)
		}
		s.handlers = append(s.handlers, h)
		for _, p := range h.Paths() {
			s.paths[p] = h
		}
		if s.mounted {
			s.mount(h)
		}
	}
	return nil
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Port returns the bound port, or zero before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens and serves until ctx ends or Stop is called. Calling Start
// on a running server returns nil at once.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.stopping:
		s.mu.Unlock()
		return ErrStopped
	case s.srv != nil:
		s.mu.Unlock()
		return nil
	}

	ln, err := s.listen()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.port = ln.Addr().(*net.TCPAddr).Port

	if !s.mounted {
		for _, h := range s.handlers {
			s.mount(h)
		}
		s.router.Any("/", s.notFound)
		s.mounted = true
	}

	serverCtx, stop := context.WithCancel(context.Background())
	s.stop = stop
	s.srv = &http.Server{
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return serverCtx
		},
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.stopped = make(chan struct{})
	stopped := s.stopped
	served := make(chan error, 1)
	srv := s.srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			served <- fmt.Errorf("serve: %w", err)
			return
		}
		served <- nil
	}()

	s.SetState(lifecycle.DidStart)
	close(s.ready)
	slog.Info("Server listening...", "address", ln.Addr().String())

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received.")
		return s.Stop()
	case err := <-served:
		if err != nil {
			s.mu.Lock()
			s.stopping = true
			s.mu.Unlock()
			s.SetState(lifecycle.DidStop)
			close(stopped)
			return err
		}
		<-stopped
		return nil
	}
}

// Stop shuts the server down gracefully. It is a no-op unless the server is
// running.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.srv == nil || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	srv, stop, stopped := s.srv, s.stop, s.stopped
	s.mu.Unlock()
	defer close(stopped)

	// Start publishes DidStart before closing ready; DidStop must follow it.
	<-s.ready

	slog.Info("Shutting down server...")
	stop()

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.SetState(lifecycle.DidStop)
	if err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	slog.Info("Server has stopped.")
	return nil
}

// listen binds the configured port, moving to the next one while the
// current is taken.
func (s *Server) listen() (net.Listener, error) {
	port := s.cfg.Port
	var lastErr error
	for range s.cfg.MaxPortRetries {
		addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		slog.Warn("Port unavailable.", "address", addr, "reason", err)
		lastErr = err
		if port == 0 {
			break
		}
		port++
	}
	return nil, fmt.Errorf("%w: tried from %d: %w", ErrNoPort, s.cfg.Port, lastErr)
}

func (s *Server) mount(h *Handler) {
	for _, p := range h.Paths() {
		pattern := p
		if pattern == "/" {
			pattern = "/{$}"
		}
		s.router.Any(pattern, h.ServeHTTP)
		slog.Info("Path registered.", "path", p, "prefix", h.Prefix())
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	web.Fail(w, http.StatusNotFound, fmt.Errorf("%w: %s", ErrNotFound, r.URL.Path), rpc.Failure)
}
