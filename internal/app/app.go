// Package app provides the application lifecycle management for sindex.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	httpapi "github.com/arkilian/sindex/internal/api/http"
	"github.com/arkilian/sindex/internal/config"
	"github.com/arkilian/sindex/internal/manifest"
	"github.com/arkilian/sindex/internal/notify"
	"github.com/arkilian/sindex/internal/observability"
	"github.com/arkilian/sindex/internal/server"
	"github.com/arkilian/sindex/internal/snapshot"
	"github.com/arkilian/sindex/internal/storage"
)

// statsWindow is how long a decoded column stays in the target statistics
// without being seen again.
const statsWindow = time.Hour

// App manages the catalog service lifecycle.
type App struct {
	cfg *config.Config

	// Shared resources
	storage  storage.ObjectStorage
	catalog  *manifest.SQLiteCatalog
	schemas  *manifest.SchemaVersionManager
	notifier *notify.Notifier
	stats    *observability.TargetStats
	shutdown *server.ShutdownManager

	// Service components
	httpServer     *http.Server
	listener       net.Listener
	snapshotWriter *snapshot.Writer
	snapshotDaemon *snapshot.Daemon

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	// Resolve paths and validate
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Ensure directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg:      cfg,
		notifier: notify.NewNotifier(64),
		stats:    observability.NewTargetStats(statsWindow),
		shutdown: server.NewShutdownManager(server.DefaultShutdownConfig()),
	}, nil
}

// Start initializes shared resources and starts the HTTP API and the
// snapshot daemon.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.initSharedResources(ctx); err != nil {
		a.abort()
		return fmt.Errorf("failed to initialize shared resources: %w", err)
	}

	if err := a.startSnapshots(ctx); err != nil {
		a.abort()
		return fmt.Errorf("failed to start snapshots: %w", err)
	}

	if err := a.startHTTP(); err != nil {
		a.abort()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	log.Printf("sindex started")
	return nil
}

// initSharedResources initializes storage and the manifest catalog.
func (a *App) initSharedResources(ctx context.Context) error {
	var err error

	switch a.cfg.Storage.Type {
	case "local":
		a.storage, err = storage.NewLocalStorage(a.cfg.Storage.Path)
	case "s3":
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		s3Cfg.UsePathStyle = a.cfg.Storage.S3.UsePathStyle
		a.storage, err = storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Printf("Storage initialized: type=%s", a.cfg.Storage.Type)
	if a.cfg.Storage.Type == "s3" {
		log.Printf("S3 Config: Bucket=%s, Region=%s, Endpoint=%s",
			a.cfg.Storage.S3.Bucket, a.cfg.Storage.S3.Region, a.cfg.Storage.S3.Endpoint)
	}

	a.catalog, err = manifest.NewCatalog(a.cfg.ManifestPath())
	if err != nil {
		return fmt.Errorf("failed to initialize manifest catalog: %w", err)
	}
	a.shutdown.RegisterCloser("catalog", server.IOCloser(a.catalog))
	a.catalog.SetNotifier(a.notifier)
	a.schemas = manifest.NewSchemaVersionManager(a.catalog)
	log.Printf("Manifest catalog initialized: %s", a.cfg.ManifestPath())

	return nil
}

// startSnapshots restores the catalog from the latest snapshot when it is
// empty and starts the periodic snapshot daemon.
func (a *App) startSnapshots(ctx context.Context) error {
	snapCfg := a.snapshotConfig()
	a.snapshotWriter = snapshot.NewWriter(snapCfg, a.catalog, a.storage)

	if a.cfg.Snapshot.RestoreOnStart {
		tables, err := a.catalog.ListTables(ctx)
		if err != nil {
			return fmt.Errorf("failed to list tables: %w", err)
		}
		if len(tables) == 0 {
			restored, err := snapshot.RestoreLatest(ctx, a.catalog, a.storage, snapCfg.Prefix, snapCfg.WorkDir)
			if err != nil {
				return fmt.Errorf("failed to restore snapshot: %w", err)
			}
			if restored != "" {
				log.Printf("Catalog restored from snapshot %s", restored)
			}
		}
	}

	if !a.cfg.Snapshot.Enabled {
		return nil
	}
	a.snapshotDaemon = snapshot.NewDaemon(a.snapshotWriter, a.cfg.Snapshot.Interval)
	a.snapshotDaemon.WatchChanges(a.notifier)
	if err := a.snapshotDaemon.Start(ctx); err != nil {
		return err
	}
	// The daemon writes its final snapshot while the catalog is still open.
	a.shutdown.RegisterCloser("snapshot daemon", server.CloserFunc(a.snapshotDaemon.Stop))
	log.Printf("Snapshot daemon started: interval=%v, prefix=%s, retain=%d",
		a.cfg.Snapshot.Interval, snapCfg.Prefix, snapCfg.Retain)
	return nil
}

func (a *App) snapshotConfig() snapshot.Config {
	return snapshot.Config{
		Prefix:  a.cfg.Snapshot.Prefix,
		Retain:  a.cfg.Snapshot.Retain,
		WorkDir: a.cfg.Snapshot.WorkDir,
	}
}

// startHTTP starts the HTTP API server.
func (a *App) startHTTP() error {
	middleware := httpapi.ChainMiddleware(
		server.ShutdownMiddleware(a.shutdown),
		httpapi.DefaultMiddleware(),
	)
	mux := httpapi.NewRouter(httpapi.Services{
		Catalog:   a.catalog,
		Schemas:   a.schemas,
		Snapshots: a.snapshotWriter,
		Stats:     a.stats,
	}, middleware)
	mux.HandleFunc("/health", a.healthHandler())

	a.httpServer = &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.HTTP.Addr, err)
	}
	a.listener = ln
	a.shutdown.RegisterCloser("http server", server.HTTPServerCloser(a.httpServer))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		log.Printf("HTTP server listening on %s", ln.Addr())
		if err := a.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Addr returns the address the HTTP server listens on, or "" before Start.
func (a *App) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop rejects new requests, drains in-flight ones and closes the HTTP
// server, the snapshot daemon and the catalog in that order. The daemon
// writes a final snapshot before the catalog closes.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	err := a.shutdown.Shutdown(ctx, "stop")
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if err != nil {
		log.Printf("sindex stopped with errors: %v", err)
		return err
	}
	log.Printf("sindex stopped")
	return nil
}

// abort releases whatever Start managed to bring up before failing.
func (a *App) abort() {
	if err := a.shutdown.Shutdown(context.Background(), "start failed"); err != nil {
		log.Printf("Cleanup after failed start: %v", err)
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

// healthHandler returns the health check handler.
func (a *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if a.shutdown.IsShuttingDown() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"shutting_down","service":"sindex"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":"sindex"}`)
	}
}

// WaitForShutdown blocks until a shutdown signal is received.
func (a *App) WaitForShutdown(ctx context.Context) error {
	return a.shutdown.ListenForSignals(ctx)
}
