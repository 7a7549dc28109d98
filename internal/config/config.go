// Package config provides configuration for the sindex catalog service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration of the catalog service.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Snapshot configuration
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the HTTP listen address
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// SnapshotConfig holds catalog snapshot configuration.
type SnapshotConfig struct {
	// Enabled controls the periodic snapshot daemon
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Interval is the time between snapshots
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Prefix is the object path prefix for snapshots
	Prefix string `json:"prefix" yaml:"prefix"`

	// Retain is the number of snapshots kept; 0 keeps all
	Retain int `json:"retain" yaml:"retain"`

	// RestoreOnStart restores the latest snapshot when the catalog is empty
	RestoreOnStart bool `json:"restore_on_start" yaml:"restore_on_start"`

	// WorkDir is the directory for temporary snapshot files
	WorkDir string `json:"work_dir" yaml:"work_dir"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/sindex",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Storage: StorageConfig{
			Type: "local",
			Path: "",
		},
		Snapshot: SnapshotConfig{
			Enabled:        true,
			Interval:       5 * time.Minute,
			Prefix:         "snapshots",
			Retain:         10,
			RestoreOnStart: true,
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/sindex"
	}

	// Resolve storage path
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}

	// Resolve snapshot paths
	if c.Snapshot.WorkDir == "" {
		c.Snapshot.WorkDir = filepath.Join(c.DataDir, "tmp")
	}
	if c.Snapshot.Prefix == "" {
		c.Snapshot.Prefix = "snapshots"
	}
}

// ManifestPath returns the path to the manifest database.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.DataDir, "manifest.db")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if c.Snapshot.Enabled && c.Snapshot.Interval <= 0 {
		return fmt.Errorf("snapshot.interval must be positive, got %s", c.Snapshot.Interval)
	}

	if c.Snapshot.Retain < 0 {
		return fmt.Errorf("snapshot.retain must not be negative, got %d", c.Snapshot.Retain)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SINDEX_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SINDEX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// HTTP configuration
	if v := os.Getenv("SINDEX_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	// Storage configuration
	if v := os.Getenv("SINDEX_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("SINDEX_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SINDEX_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("SINDEX_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("SINDEX_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("SINDEX_S3_USE_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = v == "true" || v == "1"
	}

	// Snapshot configuration
	if v := os.Getenv("SINDEX_SNAPSHOT_ENABLED"); v != "" {
		cfg.Snapshot.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SINDEX_SNAPSHOT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Snapshot.Interval = d
		}
	}
	if v := os.Getenv("SINDEX_SNAPSHOT_PREFIX"); v != "" {
		cfg.Snapshot.Prefix = v
	}
	if v := os.Getenv("SINDEX_SNAPSHOT_RETAIN"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Snapshot.Retain)
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Snapshot.WorkDir,
	}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
