package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Storage.Path != filepath.Join("./data/sindex", "storage") {
		t.Errorf("unexpected storage path: %s", cfg.Storage.Path)
	}
	if cfg.ManifestPath() != filepath.Join("./data/sindex", "manifest.db") {
		t.Errorf("unexpected manifest path: %s", cfg.ManifestPath())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"bad storage type", func(c *Config) { c.Storage.Type = "gcs" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }},
		{"zero interval", func(c *Config) { c.Snapshot.Interval = 0 }},
		{"negative retain", func(c *Config) { c.Snapshot.Retain = -1 }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}

	cfg := DefaultConfig()
	cfg.Snapshot.Enabled = false
	cfg.Snapshot.Interval = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("interval is ignored when snapshots are disabled: %v", err)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sindex.yaml")
	content := `
data_dir: /var/lib/sindex
http:
  addr: ":9000"
  read_timeout: 5s
storage:
  type: s3
  s3:
    bucket: catalog
    region: eu-west-1
    use_path_style: true
snapshot:
  interval: 1m
  retain: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.DataDir != "/var/lib/sindex" || cfg.HTTP.Addr != ":9000" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout %s, want 5s", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.IdleTimeout != 120*time.Second {
		t.Errorf("unset fields should keep defaults, got idle timeout %s", cfg.HTTP.IdleTimeout)
	}
	if cfg.Storage.S3.Bucket != "catalog" || !cfg.Storage.S3.UsePathStyle {
		t.Errorf("unexpected s3 config: %+v", cfg.Storage.S3)
	}
	if cfg.Snapshot.Interval != time.Minute || cfg.Snapshot.Retain != 3 || !cfg.Snapshot.Enabled {
		t.Errorf("unexpected snapshot config: %+v", cfg.Snapshot)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sindex.json")
	if err := os.WriteFile(path, []byte(`{"data_dir": "/tmp/sindex", "snapshot": {"enabled": false}}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.DataDir != "/tmp/sindex" || cfg.Snapshot.Enabled {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	toml := filepath.Join(dir, "sindex.toml")
	os.WriteFile(toml, []byte("x = 1"), 0644)
	if _, err := LoadFromFile(toml); err == nil {
		t.Error("expected error for unsupported format")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("http: [unclosed"), 0644)
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SINDEX_DATA_DIR", "/env/data")
	t.Setenv("SINDEX_HTTP_ADDR", ":7070")
	t.Setenv("SINDEX_STORAGE_TYPE", "s3")
	t.Setenv("SINDEX_S3_BUCKET", "env-bucket")
	t.Setenv("SINDEX_SNAPSHOT_ENABLED", "false")
	t.Setenv("SINDEX_SNAPSHOT_INTERVAL", "30s")
	t.Setenv("SINDEX_SNAPSHOT_RETAIN", "4")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.DataDir != "/env/data" || cfg.HTTP.Addr != ":7070" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Storage.Type != "s3" || cfg.Storage.S3.Bucket != "env-bucket" {
		t.Errorf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Snapshot.Enabled || cfg.Snapshot.Interval != 30*time.Second || cfg.Snapshot.Retain != 4 {
		t.Errorf("unexpected snapshot: %+v", cfg.Snapshot)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Resolve()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.Storage.Path, cfg.Snapshot.WorkDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}
}
