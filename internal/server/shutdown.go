// Package server provides server lifecycle management including graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Closer releases one component during shutdown.
type Closer interface {
	Close(ctx context.Context) error
}

// CloserFunc adapts a function to Closer.
type CloserFunc func(ctx context.Context) error

// Close calls f(ctx).
func (f CloserFunc) Close(ctx context.Context) error {
	return f(ctx)
}

// IOCloser adapts an io.Closer, which ignores the shutdown deadline.
func IOCloser(c io.Closer) Closer {
	return CloserFunc(func(context.Context) error { return c.Close() })
}

// HTTPServerCloser stops srv from accepting connections and waits for active
// ones until the shutdown deadline.
func HTTPServerCloser(srv *http.Server) Closer {
	return CloserFunc(srv.Shutdown)
}

type namedCloser struct {
	name string
	c    Closer
}

// ShutdownManager coordinates graceful shutdown: it rejects new requests,
// drains in-flight ones and then closes registered components in reverse
// registration order.
type ShutdownManager struct {
	shutdownTimeout time.Duration
	drainTimeout    time.Duration

	inFlight atomic.Int64
	stopping atomic.Bool
	done     chan struct{}
	once     sync.Once
	err      error

	mu      sync.Mutex
	closers []namedCloser
}

// ShutdownConfig holds configuration for the shutdown manager.
type ShutdownConfig struct {
	// ShutdownTimeout bounds the whole shutdown, closers included.
	// Default: 30 seconds
	ShutdownTimeout time.Duration

	// DrainTimeout bounds the wait for in-flight requests.
	// Default: 15 seconds
	DrainTimeout time.Duration
}

// DefaultShutdownConfig returns the default shutdown configuration.
func DefaultShutdownConfig() ShutdownConfig {
	return ShutdownConfig{
		ShutdownTimeout: 30 * time.Second,
		DrainTimeout:    15 * time.Second,
	}
}

// NewShutdownManager creates a shutdown manager. Zero timeouts take the defaults.
func NewShutdownManager(config ShutdownConfig) *ShutdownManager {
	def := DefaultShutdownConfig()
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = def.ShutdownTimeout
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = def.DrainTimeout
	}
	return &ShutdownManager{
		shutdownTimeout: config.ShutdownTimeout,
		drainTimeout:    config.DrainTimeout,
		done:            make(chan struct{}),
	}
}

// RegisterCloser adds a component to close on shutdown. Components are
// closed last-registered first, so register them in start order.
func (sm *ShutdownManager) RegisterCloser(name string, c Closer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.closers = append(sm.closers, namedCloser{name: name, c: c})
}

// ListenForSignals blocks until SIGTERM or SIGINT arrives, ctx is cancelled
// or Shutdown is called elsewhere. The first two trigger Shutdown.
func (sm *ShutdownManager) ListenForSignals(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		return sm.Shutdown(context.Background(), fmt.Sprintf("received signal: %v", sig))
	case <-ctx.Done():
		return sm.Shutdown(context.Background(), "context cancelled")
	case <-sm.done:
		return nil
	}
}

// Shutdown runs once; later calls return the first call's error. Close
// errors are joined, and a failing closer does not stop the ones after it.
func (sm *ShutdownManager) Shutdown(ctx context.Context, reason string) error {
	sm.once.Do(func() {
		sm.stopping.Store(true)
		close(sm.done)
		log.Printf("server: shutting down: %s", reason)

		ctx, cancel := context.WithTimeout(ctx, sm.shutdownTimeout)
		defer cancel()

		var errs []error
		if err := sm.drain(ctx); err != nil {
			errs = append(errs, err)
		}

		sm.mu.Lock()
		closers := sm.closers
		sm.closers = nil
		sm.mu.Unlock()

		for i := len(closers) - 1; i >= 0; i-- {
			nc := closers[i]
			if err := nc.c.Close(ctx); err != nil {
				log.Printf("server: closing %s: %v", nc.name, err)
				errs = append(errs, fmt.Errorf("close %s: %w", nc.name, err))
			}
		}
		sm.err = errors.Join(errs...)
	})
	return sm.err
}

func (sm *ShutdownManager) drain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sm.drainTimeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for sm.inFlight.Load() > 0 {
		select {
		case <-ctx.Done():
			if n := sm.inFlight.Load(); n > 0 {
				return fmt.Errorf("drain: %d requests still in flight", n)
			}
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// TrackRequest counts a request as in flight. It returns false once shutdown
// has begun, in which case the request must be rejected.
func (sm *ShutdownManager) TrackRequest() bool {
	if sm.stopping.Load() {
		return false
	}
	sm.inFlight.Add(1)
	return true
}

// UntrackRequest marks a tracked request as finished.
func (sm *ShutdownManager) UntrackRequest() {
	sm.inFlight.Add(-1)
}

// IsShuttingDown reports whether Shutdown has been called.
func (sm *ShutdownManager) IsShuttingDown() bool {
	return sm.stopping.Load()
}

// ShutdownMiddleware tracks in-flight requests and answers 503 once shutdown
// has begun.
func ShutdownMiddleware(sm *ShutdownManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sm.TrackRequest() {
				w.Header().Set("Connection", "close")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"error": "service is shutting down"})
				return
			}
			defer sm.UntrackRequest()
			next.ServeHTTP(w, r)
		})
	}
}
