package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cxuy/cxkit/internal/cache"
	"github.com/cxuy/cxkit/internal/dispatch"
	"github.com/cxuy/cxkit/internal/eventbus"
	"github.com/cxuy/cxkit/internal/handler"
	"github.com/cxuy/cxkit/internal/kv"
	"github.com/cxuy/cxkit/internal/pkg/web"
	"github.com/cxuy/cxkit/internal/platform/jwt"
	"github.com/cxuy/cxkit/internal/platform/validation"
	"github.com/cxuy/cxkit/internal/rpc"
)

func serveOnce(t *testing.T, h http.Handler, req *http.Request) (int, rpc.Envelope[string]) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res := rec.Result()
	defer res.Body.Close()

	return res.StatusCode, web.DecodeEnvelope[string](t, res)
}

func TestRoutes_Root(t *testing.T) {
	t.Parallel()

	handlers, err := handler.Routes(handler.Deps{Store: kv.NewMemoryStorage(), Signer: &jwt.StubSigner{}})
	if err != nil {
		t.Fatalf("handler.Routes() = %v", err)
	}

	var paths []string
	for _, h := range handlers {
		paths = append(paths, h.Paths()...)
	}
	want := "/ /root /hello/hello /hello /helloworld /kv/get /kv/put /kv/delete"
	if got := strings.Join(paths, " "); got != want {
		t.Errorf("paths = %q, want: %q", got, want)
	}

	for _, target := range []string{"/", "/root"} {
		status, env := serveOnce(t, handlers[0], httptest.NewRequest(http.MethodGet, target, http.NoBody))
		if status != http.StatusOK || env.Data != handler.RootMessage {
			t.Errorf("GET %s = %d %q, want: %d %q", target, status, env.Data, http.StatusOK, handler.RootMessage)
		}
	}
}

func TestHello(t *testing.T) {
	t.Parallel()

	hello := handler.NewHello()
	routes, err := hello.Routes()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		target string
		want   string
	}{
		{"/hello/hello", "hello world"},
		{"/hello?name=kpb", "hello, kpb"},
	}
	for _, tt := range tests {
		status, env := serveOnce(t, routes, httptest.NewRequest(http.MethodGet, tt.target, http.NoBody))
		if status != http.StatusOK || env.Data != tt.want {
			t.Errorf("GET %s = %d %q, want: %d %q", tt.target, status, env.Data, http.StatusOK, tt.want)
		}
	}

	if got, ok := hello.Last.Value(); !ok || got != "kpb" {
		t.Errorf("hello.Last.Value() = %q, %t, want: %q, true", got, ok, "kpb")
	}
}

func TestWorld(t *testing.T) {
	t.Parallel()

	q := dispatch.NewQueue("world-test")
	t.Cleanup(q.Shutdown)
	bus := eventbus.New(q)

	received := make(chan handler.WorldReceived, 1)
	sub := eventbus.Subscribe(bus, func(e handler.WorldReceived) { received <- e })
	defer sub.Cancel()

	routes, err := handler.NewWorld(bus).Routes()
	if err != nil {
		t.Fatal(err)
	}
	routes.SetValidator(validation.NewGoPlaygroundValidator())

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"accepted", web.MimeJSON, `{"name":"kpb","id":1}`, http.StatusOK},
		{"wrong content type", "text/plain", `{"name":"kpb","id":1}`, http.StatusUnsupportedMediaType},
		{"invalid body", web.MimeJSON, `{"id":1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/helloworld?name=ann", strings.NewReader(tt.body))
		req.Header.Set(web.HeaderContentType, tt.contentType)
		if status, _ := serveOnce(t, routes, req); status != tt.wantStatus {
			t.Errorf("%s: status = %d, want: %d", tt.name, status, tt.wantStatus)
		}
	}

	if err := bus.Flush(); err != nil {
		t.Fatal(err)
	}
	select {
	case e := <-received:
		if e.Name != "ann" || e.Body.Name != "kpb" || e.Body.ID != 1 {
			t.Errorf("event = %+v, want name ann and body {kpb 1}", e)
		}
	default:
		t.Error("no WorldReceived event delivered")
	}
}

func TestKV(t *testing.T) {
	t.Parallel()

	signer := &jwt.StubSigner{
		VerifyFunc: func(token string) (*jwt.Claims, error) {
			switch token {
			case "ann", "bob":
				return &jwt.Claims{Subject: token}, nil
			}
			return nil, jwt.ErrInvalidToken
		},
	}
	store := kv.NewMemoryStorage()
	routes, err := handler.NewKV(store, cache.NewPool[string](cache.WithCapacity(8)), signer).Routes()
	if err != nil {
		t.Fatal(err)
	}

	do := func(token, target string) (int, string) {
		req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
		if token != "" {
			req.Header.Set(web.HeaderAuthorization, "Bearer "+token)
		}
		status, env := serveOnce(t, routes, req)
		return status, env.Data
	}

	steps := []struct {
		name       string
		token      string
		target     string
		wantStatus int
		wantData   string
	}{
		{"no token", "", "/kv/get?key=a", http.StatusUnauthorized, ""},
		{"bad token", "eve", "/kv/get?key=a", http.StatusUnauthorized, ""},
		{"missing key", "ann", "/kv/get?key=b", http.StatusOK, ""},
		{"put", "ann", "/kv/put?key=a&value=1", http.StatusOK, handler.MsgStored},
		{"get", "ann", "/kv/get?key=a", http.StatusOK, "1"},
		{"other user", "bob", "/kv/get?key=a", http.StatusOK, ""},
		{"empty key", "ann", "/kv/get?key=", http.StatusBadRequest, ""},
		{"delete", "ann", "/kv/delete?key=a", http.StatusOK, handler.MsgStored},
		{"get after delete", "ann", "/kv/get?key=a", http.StatusOK, ""},
	}

	for _, s := range steps {
		status, data := do(s.token, s.target)
		if status != s.wantStatus || data != s.wantData {
			t.Errorf("%s: got %d %q, want: %d %q", s.name, status, data, s.wantStatus, s.wantData)
		}
	}

	ok, err := store.Contains(context.Background(), "ann/a")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("store still contains ann/a after delete")
	}
}

func kvSigner() *jwt.StubSigner {
	return &jwt.StubSigner{
		VerifyFunc: func(token string) (*jwt.Claims, error) {
			return &jwt.Claims{Subject: token}, nil
		},
	}
}

func TestKV_DeleteEvictsAfterStoreWrite(t *testing.T) {
	t.Parallel()

	pool := cache.NewPool[string](cache.WithCapacity(8))
	var cachedDuringRemove bool
	store := &kv.StubStorage{
		PutFunc: func(context.Context, string, string) error { return nil },
		RemoveFunc: func(_ context.Context, key string) error {
			_, cachedDuringRemove = pool.Get(key)
			return nil
		},
	}
	routes, err := handler.NewKV(store, pool, kvSigner()).Routes()
	if err != nil {
		t.Fatal(err)
	}

	for _, target := range []string{"/kv/put?key=a&value=1", "/kv/delete?key=a"} {
		req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
		req.Header.Set(web.HeaderAuthorization, "Bearer ann")
		if status, env := serveOnce(t, routes, req); status != http.StatusOK {
			t.Fatalf("%s: got %d %q", target, status, env.Message)
		}
	}

	if !cachedDuringRemove {
		t.Error("cache entry was evicted before the store removed it")
	}
	if _, ok := pool.Get("ann/a"); ok {
		t.Error("cache still holds ann/a after delete")
	}
}

func TestKV_WithoutCacheReadsStore(t *testing.T) {
	t.Parallel()

	store := kv.NewMemoryStorage()
	routes, err := handler.NewKV(store, nil, kvSigner()).Routes()
	if err != nil {
		t.Fatal(err)
	}

	get := func() string {
		req := httptest.NewRequest(http.MethodGet, "/kv/get?key=a", http.NoBody)
		req.Header.Set(web.HeaderAuthorization, "Bearer ann")
		_, env := serveOnce(t, routes, req)
		return env.Data
	}

	if got := get(); got != "" {
		t.Fatalf("get before write = %q, want: empty", got)
	}
	// Another process writing the shared store.
	if err := store.Put(context.Background(), "ann/a", "2"); err != nil {
		t.Fatal(err)
	}
	if got := get(); got != "2" {
		t.Errorf("get after external write = %q, want: %q", got, "2")
	}
}
