package snapshot

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	serrors "github.com/arkilian/sindex/internal/errors"
	"github.com/arkilian/sindex/internal/manifest"
	"github.com/arkilian/sindex/internal/storage"
)

const (
	objectSuffix = ".snap"
	// timeLayout is fixed width so that object names sort chronologically.
	timeLayout = "20060102T150405.000000000Z"
)

// Config holds snapshot settings.
type Config struct {
	// Prefix is the object path prefix (default: "snapshots").
	Prefix string
	// Retain is the number of snapshots kept after a write; 0 keeps all.
	Retain int
	// WorkDir holds temporary files while uploading and downloading.
	WorkDir string
}

// DefaultConfig returns the default snapshot configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:  "snapshots",
		Retain:  10,
		WorkDir: os.TempDir(),
	}
}

// Writer exports the catalog into object storage.
type Writer struct {
	config  Config
	catalog manifest.Catalog
	storage storage.ObjectStorage
	now     func() time.Time
}

// NewWriter creates a snapshot writer.
func NewWriter(config Config, catalog manifest.Catalog, store storage.ObjectStorage) *Writer {
	if config.Prefix == "" {
		config.Prefix = DefaultConfig().Prefix
	}
	if config.WorkDir == "" {
		config.WorkDir = os.TempDir()
	}
	config.Prefix = strings.TrimSuffix(config.Prefix, "/")

	return &Writer{
		config:  config,
		catalog: catalog,
		storage: store,
		now:     time.Now,
	}
}

// Write exports the catalog, uploads it and prunes old snapshots.
// It returns the object path of the new snapshot.
func (w *Writer) Write(ctx context.Context) (string, error) {
	snap, err := w.catalog.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot: export failed: %w", err)
	}

	data, err := Encode(snap)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.config.WorkDir, 0755); err != nil {
		return "", fmt.Errorf("snapshot: failed to create work dir: %w", err)
	}
	tmp, err := os.CreateTemp(w.config.WorkDir, "snapshot-*.tmp")
	if err != nil {
		return "", fmt.Errorf("snapshot: failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("snapshot: failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("snapshot: failed to close temp file: %w", err)
	}

	objectPath := w.objectPath()
	if err := w.storage.Upload(ctx, tmp.Name(), objectPath); err != nil {
		return "", serrors.NewStorageError(serrors.CodeUploadFailed,
			fmt.Sprintf("failed to upload snapshot %s", objectPath), err)
	}

	log.Printf("snapshot: wrote %s (%d tables, %d indexes, %d bytes)",
		objectPath, len(snap.Tables), len(snap.Indexes), len(data))

	if w.config.Retain > 0 {
		if _, err := w.Prune(ctx); err != nil {
			log.Printf("snapshot: prune failed: %v", err)
		}
	}
	return objectPath, nil
}

// objectPath names a new snapshot: <prefix>/<timestamp>-<uuid>.snap.
func (w *Writer) objectPath() string {
	name := w.now().UTC().Format(timeLayout) + "-" + uuid.New().String() + objectSuffix
	return path.Join(w.config.Prefix, name)
}

// List returns snapshot object paths, oldest first.
func (w *Writer) List(ctx context.Context) ([]string, error) {
	return List(ctx, w.storage, w.config.Prefix)
}

// Prune deletes all but the newest Retain snapshots and returns the deleted paths.
// Individual delete failures are logged and skipped.
func (w *Writer) Prune(ctx context.Context) ([]string, error) {
	snapshots, err := w.List(ctx)
	if err != nil {
		return nil, err
	}
	if w.config.Retain <= 0 || len(snapshots) <= w.config.Retain {
		return nil, nil
	}

	var deleted []string
	for _, p := range snapshots[:len(snapshots)-w.config.Retain] {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}
		if err := w.storage.Delete(ctx, p); err != nil {
			log.Printf("snapshot: failed to delete %s: %v", p, err)
			continue
		}
		deleted = append(deleted, p)
	}

	if len(deleted) > 0 {
		log.Printf("snapshot: pruned %d old snapshots", len(deleted))
	}
	return deleted, nil
}

// List returns the snapshot object paths under prefix, oldest first.
func List(ctx context.Context, store storage.ObjectStorage, prefix string) ([]string, error) {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("snapshot: failed to list snapshots: %w", err)
	}

	var snapshots []string
	for _, o := range objects {
		if strings.HasSuffix(o, objectSuffix) && !strings.Contains(strings.TrimPrefix(o, prefix), "/") {
			snapshots = append(snapshots, o)
		}
	}
	sort.Strings(snapshots)
	return snapshots, nil
}

// Restore downloads a snapshot, verifies it and imports it into the catalog.
func Restore(ctx context.Context, catalog manifest.Catalog, store storage.ObjectStorage, objectPath, workDir string) error {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("snapshot: failed to create work dir: %w", err)
	}

	localPath := filepath.Join(workDir, "restore-"+uuid.New().String()+objectSuffix)
	defer os.Remove(localPath)

	if err := store.Download(ctx, objectPath, localPath); err != nil {
		return serrors.NewStorageError(serrors.CodeDownloadFailed,
			fmt.Sprintf("failed to download snapshot %s", objectPath), err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("snapshot: failed to read %s: %w", localPath, err)
	}

	snap, err := Decode(data)
	if err != nil {
		return err
	}
	if err := catalog.Import(ctx, snap); err != nil {
		return fmt.Errorf("snapshot: import failed: %w", err)
	}

	log.Printf("snapshot: restored %s (%d tables, %d indexes)", objectPath, len(snap.Tables), len(snap.Indexes))
	return nil
}

// RestoreLatest restores the newest snapshot under prefix. It returns the
// restored object path, or "" when no snapshot exists.
func RestoreLatest(ctx context.Context, catalog manifest.Catalog, store storage.ObjectStorage, prefix, workDir string) (string, error) {
	snapshots, err := List(ctx, store, prefix)
	if err != nil {
		return "", err
	}
	if len(snapshots) == 0 {
		return "", nil
	}
	latest := snapshots[len(snapshots)-1]
	if err := Restore(ctx, catalog, store, latest, workDir); err != nil {
		return "", err
	}
	return latest, nil
}
