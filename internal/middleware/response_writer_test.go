package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cxuy/cxkit/internal/middleware"
)

func TestSafeResponseWriter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := middleware.NewSafeResponseWriter(context.Background(), rec)

	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusInternalServerError)
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("w.Write: %v", err)
	}

	if got, want := w.Status(), http.StatusCreated; got != want {
		t.Errorf("w.Status() = %d, want: %d", got, want)
	}
	if got, want := rec.Code, http.StatusCreated; got != want {
		t.Errorf("rec.Code = %d, want: %d", got, want)
	}
	if got, want := w.BytesWritten(), 5; got != want {
		t.Errorf("w.BytesWritten() = %d, want: %d", got, want)
	}
}

func TestSafeResponseWriter_DropsWritesAfterCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	rec := httptest.NewRecorder()
	w := middleware.NewSafeResponseWriter(ctx, rec)
	cancel()

	n, err := w.Write([]byte("late"))
	if err != nil || n != 0 {
		t.Errorf("w.Write() = %d, %v, want: 0, nil", n, err)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("rec.Body = %q, want empty", rec.Body.String())
	}
}

func TestInjectWriterAndLogRequest(t *testing.T) {
	t.Parallel()

	var got http.ResponseWriter
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		got = w
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	middleware.InjectWriter(middleware.LogRequest(next)).ServeHTTP(rec, req)

	sw, ok := got.(*middleware.SafeResponseWriter)
	if !ok {
		t.Fatalf("handler got %T, want *middleware.SafeResponseWriter", got)
	}
	if sw.Status() != http.StatusAccepted {
		t.Errorf("sw.Status() = %d, want: %d", sw.Status(), http.StatusAccepted)
	}
}
