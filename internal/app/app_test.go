package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cxuy/cxkit/internal/app"
	"github.com/cxuy/cxkit/internal/config"
	"github.com/cxuy/cxkit/internal/framework"
	"github.com/cxuy/cxkit/internal/httpclient"
	"github.com/cxuy/cxkit/internal/kv"
	"github.com/cxuy/cxkit/internal/protocol"
	"github.com/cxuy/cxkit/internal/rpc"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() = %v", err)
	}
	cfg.Key = "testsecret"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.MaxPortRetries = 1
	cfg.Argon2.Memory = 1024
	cfg.Argon2.Iterations = 1
	cfg.KV.FlushThreshold = 1
	return cfg
}

type credentials struct {
	Username string `rpc:"param,username"`
	Pwd      string `rpc:"param,pwd"`
}

type kvArgs struct {
	Key   string  `rpc:"param,key"`
	Value *string `rpc:"param,value"`
}

func TestApp_StartAndShutdown(t *testing.T) {
	root := t.TempDir()
	cfg := newTestConfig(t)

	fctx, err := framework.New(root, framework.Debug)
	if err != nil {
		t.Fatalf("framework.New() = %v", err)
	}

	api, err := app.NewForTest(t.Context(), cfg, fctx)
	if err != nil {
		t.Fatalf("app.New() = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- api.Start(ctx) }()

	select {
	case <-api.Server().Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("api.Start() = %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}

	p := protocol.New(fmt.Sprintf("http://127.0.0.1:%d", api.Server().Port()))
	c := httpclient.New()
	get := func(path string, args any) rpc.Envelope[string] {
		t.Helper()
		env, err := protocol.Call[string](t.Context(), c, p, protocol.Endpoint{Method: httpclient.GET, Path: path}, args)
		if err != nil {
			t.Fatalf("GET %s = %v", path, err)
		}
		return env
	}

	if env := get("/hello/hello", nil); env.Data != "hello world" {
		t.Errorf("GET /hello/hello = %q, want: %q", env.Data, "hello world")
	}

	ann := credentials{Username: "ann", Pwd: "secret"}
	if env := get("/login/register", ann); !env.OK() {
		t.Fatalf("GET /login/register code = %d, want: %d", env.Code, rpc.Successful)
	}
	token := get("/login", ann).Data
	if token == "" {
		t.Fatal("GET /login returned no token")
	}

	if env := get("/kv/get", kvArgs{Key: "color"}); env.OK() {
		t.Errorf("GET /kv/get without token = %+v, want failure", env)
	}

	c.AddInterceptor(httpclient.BearerToken(func() (string, error) { return token, nil }))
	blue := "blue"
	if env := get("/kv/put", kvArgs{Key: "color", Value: &blue}); !env.OK() {
		t.Fatalf("GET /kv/put code = %d, want: %d", env.Code, rpc.Successful)
	}
	if env := get("/kv/get", kvArgs{Key: "color"}); env.Data != blue {
		t.Errorf("GET /kv/get = %q, want: %q", env.Data, blue)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("api.Start() = %v", err)
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := api.Shutdown(shutdownCtx); err != nil {
		t.Errorf("api.Shutdown() = %v", err)
	}

	reopened, err := kv.OpenFile(root, app.StoreData)
	if err != nil {
		t.Fatalf("kv.OpenFile() = %v", err)
	}
	got, err := reopened.Get(context.Background(), "ann/color", "")
	if err != nil {
		t.Fatalf("reopened.Get() = %v", err)
	}
	if got != blue {
		t.Errorf("reopened.Get(%q) = %q, want: %q", "ann/color", got, blue)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := app.LoadConfig(app.Options{ConfigFile: "missing.json", Port: 9100, Debug: true})
	if err != nil {
		t.Fatalf("app.LoadConfig() = %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("cfg.Server.Port = %d, want: %d", cfg.Server.Port, 9100)
	}
	if cfg.Log.Level != "DEBUG" {
		t.Errorf("cfg.Log.Level = %q, want: %q", cfg.Log.Level, "DEBUG")
	}
}
