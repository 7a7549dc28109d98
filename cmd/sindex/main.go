// Package main implements the sindex binary, which serves the secondary
// index catalog over HTTP and snapshots it to object storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/arkilian/sindex/internal/app"
	"github.com/arkilian/sindex/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		httpAddr    string
		storageType string
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address")
	flag.StringVar(&storageType, "storage", "", "Snapshot storage type: local, s3")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sindex - secondary index catalog service\n\n")
		fmt.Fprintf(os.Stderr, "Usage: sindex [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sindex --data-dir /data/sindex\n")
		fmt.Fprintf(os.Stderr, "  sindex --config /etc/sindex/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SINDEX_DATA_DIR           Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  SINDEX_HTTP_ADDR          HTTP listen address\n")
		fmt.Fprintf(os.Stderr, "  SINDEX_STORAGE_TYPE       Storage type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  SINDEX_S3_BUCKET          S3 bucket for snapshots\n")
		fmt.Fprintf(os.Stderr, "  SINDEX_SNAPSHOT_INTERVAL  Time between snapshots\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("sindex version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, dataDir, httpAddr, storageType)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	printBanner(cfg)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Blocks until SIGTERM or SIGINT; new requests are rejected from then on.
	// Stop reports the shutdown result, so the error here is not logged twice.
	_ = application.WaitForShutdown(ctx)

	if err := application.Stop(context.Background()); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, httpAddr, storageType string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	// Flags take precedence over file and environment.
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
	}

	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("sindex %s", version)
	log.Printf("Configuration:")
	log.Printf("  Data Dir: %s", cfg.DataDir)
	log.Printf("  HTTP:     %s", cfg.HTTP.Addr)
	log.Printf("  Storage:  %s", cfg.Storage.Type)
	if cfg.Snapshot.Enabled {
		log.Printf("  Snapshots: every %v, keep %d", cfg.Snapshot.Interval, cfg.Snapshot.Retain)
	} else {
		log.Printf("  Snapshots: disabled")
	}
	log.Printf("")
}
