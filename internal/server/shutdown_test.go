package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func TestShutdownManager_ClosersRunInReverseOrder(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())

	var order []string
	for _, name := range []string{"catalog", "snapshots", "http"} {
		name := name
		sm.RegisterCloser(name, CloserFunc(func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("%s: closer context should carry the shutdown deadline", name)
			}
			order = append(order, name)
			return nil
		}))
	}
	plain := &countingCloser{}
	sm.RegisterCloser("io", IOCloser(plain))

	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if strings.Join(order, ",") != "http,snapshots,catalog" {
		t.Errorf("closers ran in order %v, want [http snapshots catalog]", order)
	}
	if plain.closed != 1 {
		t.Errorf("io closer closed %d times, want 1", plain.closed)
	}

	// A second call is a no-op.
	if err := sm.Shutdown(context.Background(), "again"); err != nil {
		t.Errorf("second Shutdown returned %v", err)
	}
	if len(order) != 3 || plain.closed != 1 {
		t.Error("second Shutdown should not rerun closers")
	}
}

func TestShutdownManager_CloserErrorDoesNotStopOthers(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())
	boom := errors.New("boom")

	first := &countingCloser{}
	sm.RegisterCloser("first", IOCloser(first))
	sm.RegisterCloser("failing", CloserFunc(func(context.Context) error { return boom }))

	err := sm.Shutdown(context.Background(), "test")
	if !errors.Is(err, boom) {
		t.Errorf("expected closer error, got %v", err)
	}
	if !strings.Contains(err.Error(), "close failing") {
		t.Errorf("error should name the closer, got %v", err)
	}
	if first.closed != 1 {
		t.Error("closers registered before a failing one should still run")
	}

	// Later calls report the same result.
	if err2 := sm.Shutdown(context.Background(), "again"); !errors.Is(err2, boom) {
		t.Errorf("second Shutdown returned %v", err2)
	}
}

func TestShutdownManager_DrainTimeout(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{
		ShutdownTimeout: time.Second,
		DrainTimeout:    150 * time.Millisecond,
	})
	if !sm.TrackRequest() {
		t.Fatal("TrackRequest should succeed before shutdown")
	}

	err := sm.Shutdown(context.Background(), "test")
	if err == nil {
		t.Error("expected drain timeout error with a request in flight")
	}
	if sm.TrackRequest() {
		t.Error("TrackRequest should fail after shutdown")
	}
}

func TestShutdownManager_ListenReturnsAfterShutdown(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())
	errCh := make(chan error, 1)
	go func() { errCh <- sm.ListenForSignals(context.Background()) }()

	sm.Shutdown(context.Background(), "test")
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenForSignals returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ListenForSignals did not return after Shutdown")
	}
}

func TestHTTPServerCloser(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := &http.Server{Handler: http.NotFoundHandler()}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	sm := NewShutdownManager(DefaultShutdownConfig())
	sm.RegisterCloser("http", HTTPServerCloser(srv))
	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case err := <-served:
		if err != http.ErrServerClosed {
			t.Errorf("Serve returned %v, want ErrServerClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("server still serving after shutdown")
	}
}

func TestShutdownMiddleware(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())
	handler := ShutdownMiddleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n := sm.inFlight.Load(); n != 1 {
			t.Errorf("expected 1 in-flight request, got %d", n)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status %d, want %d", rec.Code, http.StatusNoContent)
	}
	if n := sm.inFlight.Load(); n != 0 {
		t.Errorf("in-flight count should return to 0, got %d", n)
	}

	sm.Shutdown(context.Background(), "test")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("rejection should be JSON, got %q", rec.Header().Get("Content-Type"))
	}
}
