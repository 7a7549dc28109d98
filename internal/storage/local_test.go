package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorage_UploadDownload(t *testing.T) {
	// Create temp directories
	baseDir := t.TempDir()
	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	// Create a test file
	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "test.txt")
	content := []byte("hello world")
	if err := os.WriteFile(srcPath, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	ctx := context.Background()

	// Test Upload
	objectPath := "test/object.txt"
	if err := storage.Upload(ctx, srcPath, objectPath); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	// Test Exists
	exists, err := storage.Exists(ctx, objectPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected object to exist")
	}

	// Test Download
	dstPath := filepath.Join(srcDir, "downloaded.txt")
	if err := storage.Download(ctx, objectPath, dstPath); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	downloaded, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(downloaded) != string(content) {
		t.Errorf("content mismatch: got %q, want %q", downloaded, content)
	}

	// Test Delete
	if err := storage.Delete(ctx, objectPath); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err = storage.Exists(ctx, objectPath)
	if err != nil {
		t.Fatalf("Exists after delete failed: %v", err)
	}
	if exists {
		t.Error("expected object to not exist after delete")
	}
}

func TestLocalStorage_ListObjects(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	srcPath := filepath.Join(t.TempDir(), "test.txt")
	if err := os.WriteFile(srcPath, []byte("snapshot"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	ctx := context.Background()
	for _, p := range []string{"snapshots/b.snap", "snapshots/a.snap", "other/c.snap", "snapshots-old/d.snap"} {
		if err := storage.Upload(ctx, srcPath, p); err != nil {
			t.Fatalf("Upload %s failed: %v", p, err)
		}
	}

	objects, err := storage.ListObjects(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	want := []string{"snapshots/a.snap", "snapshots/b.snap"}
	if len(objects) != len(want) {
		t.Fatalf("got %v, want %v", objects, want)
	}
	for i := range want {
		if objects[i] != want[i] {
			t.Errorf("object %d: got %q, want %q", i, objects[i], want[i])
		}
	}

	objects, err = storage.ListObjects(ctx, "snapshots")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	if len(objects) != 3 {
		t.Errorf("bare prefix should match 3 objects, got %v", objects)
	}

	objects, err = storage.ListObjects(ctx, "missing/")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	if len(objects) != 0 {
		t.Errorf("expected no objects, got %v", objects)
	}
}

func TestLocalStorage_UploadOverwrites(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	srcDir := t.TempDir()
	ctx := context.Background()
	for _, content := range []string{"first", "second"} {
		srcPath := filepath.Join(srcDir, content)
		if err := os.WriteFile(srcPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}
		if err := storage.Upload(ctx, srcPath, "obj"); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
	}

	dstPath := filepath.Join(srcDir, "out")
	if err := storage.Download(ctx, "obj", dstPath); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	got, _ := os.ReadFile(dstPath)
	if string(got) != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}

	objects, _ := storage.ListObjects(ctx, "")
	if len(objects) != 1 {
		t.Errorf("temporary upload files should not be listed: %v", objects)
	}
}

func TestLocalStorage_DeleteMissing(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	if err := storage.Delete(context.Background(), "nope"); err != nil {
		t.Errorf("Delete of a missing object should succeed, got %v", err)
	}
}

func TestLocalStorage_DownloadNotFound(t *testing.T) {
	baseDir := t.TempDir()
	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	ctx := context.Background()
	dstPath := filepath.Join(t.TempDir(), "downloaded.txt")

	err = storage.Download(ctx, "nonexistent/object.txt", dstPath)
	if err != ErrObjectNotFound {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalStorage_Clear(t *testing.T) {
	baseDir := t.TempDir()
	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "test.txt")
	if err := os.WriteFile(srcPath, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	ctx := context.Background()

	// Upload some objects
	if err := storage.Upload(ctx, srcPath, "obj1.txt"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := storage.Upload(ctx, srcPath, "obj2.txt"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	// Clear storage
	if err := storage.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	// Verify objects are gone
	exists, _ := storage.Exists(ctx, "obj1.txt")
	if exists {
		t.Error("expected obj1.txt to not exist after clear")
	}
	exists, _ = storage.Exists(ctx, "obj2.txt")
	if exists {
		t.Error("expected obj2.txt to not exist after clear")
	}
}
