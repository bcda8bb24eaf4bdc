// Package app wires the configuration, storages and routes into a running
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cxuy/cxkit/internal/auth"
	"github.com/cxuy/cxkit/internal/cache"
	"github.com/cxuy/cxkit/internal/config"
	"github.com/cxuy/cxkit/internal/dispatch"
	"github.com/cxuy/cxkit/internal/eventbus"
	"github.com/cxuy/cxkit/internal/framework"
	"github.com/cxuy/cxkit/internal/handler"
	"github.com/cxuy/cxkit/internal/kv"
	"github.com/cxuy/cxkit/internal/server"
)

// Store names.
const (
	StoreAccounts = "accounts"
	StoreData     = "data"
)

const backendSQL = "sql"

type App struct {
	cfg      *config.Config
	fctx     *framework.Context
	server   *server.Server
	stores   *kv.Provider
	events   *dispatch.Queue
	bus      *eventbus.Bus
	hello    *handler.Hello
	accounts *auth.Accounts
	subs     []*eventbus.Subscription
}

func New(ctx context.Context, cfg *config.Config, fctx *framework.Context, p *Provider) (*App, error) {
	stores := kv.NewProvider(fctx.RootDir(), fctx, nil, cfg.KV.FlushThreshold)

	accountStore, err := openStore(ctx, cfg, stores, p, StoreAccounts)
	if err != nil {
		return nil, err
	}
	dataStore, err := openStore(ctx, cfg, stores, p, StoreData)
	if err != nil {
		return nil, err
	}

	events := dispatch.NewQueue("events")
	a := &App{
		cfg:      cfg,
		fctx:     fctx,
		stores:   stores,
		events:   events,
		bus:      eventbus.New(events),
		hello:    handler.NewHello(),
		accounts: auth.NewAccounts(accountStore, p.Hasher, p.Signer, cfg.JWT.TTL.Duration),
	}

	a.server = server.New(serverConfig(cfg.Server), p.Router, p.Validator, middlewares...)

	deps := handler.Deps{
		Hello:  a.hello,
		Bus:    a.bus,
		Store:  dataStore,
		Signer: p.Signer,
	}
	// Rows in a shared database change under other processes, so only local
	// stores are cached.
	if cfg.KV.Backend != backendSQL {
		deps.Cache = cache.NewPool[string](cache.WithShards(cfg.Cache.Shards), cache.WithCapacity(cfg.Cache.Capacity))
	}
	if err := mountRoutes(a.server, deps, a.accounts); err != nil {
		return nil, err
	}

	a.observe()
	return a, nil
}

// openStore returns the named storage on the configured backend.
func openStore(ctx context.Context, cfg *config.Config, stores *kv.Provider, p *Provider, name string) (kv.Storage, error) {
	if cfg.KV.Backend != backendSQL {
		return stores.OpenFile(name)
	}
	if p.DB == nil {
		return nil, fmt.Errorf("kv backend %q requires the database to be enabled", backendSQL)
	}

	s := kv.NewSQLStore(name, p.DB, p.TxMgr)
	if err := s.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate kv store %s: %w", name, err)
	}
	stores.Add(name, s)
	return s, nil
}

func serverConfig(c *config.Server) server.Config {
	return server.Config{
		Host:            c.Host,
		Port:            c.Port,
		MaxPortRetries:  c.MaxPortRetries,
		ReadTimeout:     c.ReadTimeout.Duration,
		WriteTimeout:    c.WriteTimeout.Duration,
		IdleTimeout:     c.IdleTimeout.Duration,
		ShutdownTimeout: c.ShutdownTimeout.Duration,
		MaxBodyBytes:    c.MaxBodyBytes,
	}
}

func (a *App) observe() {
	a.subs = append(a.subs, eventbus.Subscribe(a.bus, func(e handler.WorldReceived) {
		slog.Info("Helloworld event delivered.", "name", e.Name, "body_id", e.Body.ID)
	}))

	a.hello.Last.Observe(a.server, func(name string) {
		slog.Debug("Last greeted name changed.", "name", name)
	})
}

func (a *App) Server() *server.Server {
	return a.server
}

func (a *App) Accounts() *auth.Accounts {
	return a.accounts
}

// Start creates the framework context and serves until ctx ends.
func (a *App) Start(ctx context.Context) error {
	a.fctx.Create()
	if err := a.server.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

// Shutdown stops the server, flushes the storages and drains the event
// queue.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Stop(); err != nil {
		errs = append(errs, err)
	}

	for _, s := range a.subs {
		s.Cancel()
	}
	if err := a.bus.Flush(); err != nil && !errors.Is(err, dispatch.ErrQueueDestroyed) {
		errs = append(errs, fmt.Errorf("flush events: %w", err))
	}
	if err := a.events.AwaitShutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("await event queue: %w", err))
	}

	a.fctx.Destroy()
	if err := a.stores.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close stores: %w", err))
	}
	return errors.Join(errs...)
}
