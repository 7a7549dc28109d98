package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/sindex/internal/config"
	"github.com/arkilian/sindex/internal/snapshot"
	"github.com/arkilian/sindex/pkg/types"
)

func testConfig(dataDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Snapshot.Interval = time.Hour
	return cfg
}

func startApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	return a
}

func TestApp_ServesHealth(t *testing.T) {
	a := startApp(t, testConfig(t.TempDir()))
	defer a.Stop(context.Background())

	resp, err := http.Get("http://" + a.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"healthy"`)

	assert.Error(t, a.Start(context.Background()), "second Start should fail")
}

func TestApp_RestoresFromSnapshotOnStart(t *testing.T) {
	dataDir := t.TempDir()
	cfg := testConfig(dataDir)

	a := startApp(t, cfg)
	body, err := json.Marshal(types.TableSchema{
		Name:    "events",
		Columns: []types.ColumnDef{{Name: "tenant_id", Type: "text", Kind: types.ColumnKindPartitionKey}},
	})
	require.NoError(t, err)
	resp, err := http.Post("http://"+a.Addr()+"/v1/tables", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Stop writes a final snapshot.
	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, a.Stop(context.Background()))

	require.NoError(t, os.Remove(cfg.ManifestPath()))
	os.Remove(cfg.ManifestPath() + "-wal")
	os.Remove(cfg.ManifestPath() + "-shm")

	b := startApp(t, testConfig(dataDir))
	defer b.Stop(context.Background())

	tables, err := b.catalog.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"events"}, tables)
}

func TestApp_StopClosesInReverseStartOrder(t *testing.T) {
	a := startApp(t, testConfig(t.TempDir()))
	addr := a.Addr()

	before, err := snapshot.List(context.Background(), a.storage, a.cfg.Snapshot.Prefix)
	require.NoError(t, err)

	require.NoError(t, a.Stop(context.Background()))
	assert.True(t, a.shutdown.IsShuttingDown())

	// The daemon's final snapshot ran before the catalog closed.
	after, err := snapshot.List(context.Background(), a.storage, a.cfg.Snapshot.Prefix)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	_, err = a.catalog.ListTables(context.Background())
	assert.Error(t, err, "catalog should be closed")

	client := &http.Client{Timeout: time.Second}
	_, err = client.Get("http://" + addr + "/health")
	assert.Error(t, err, "HTTP server should be closed")
}

func TestApp_InvalidConfig(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Storage.Type = "ftp"

	_, err := New(cfg)
	assert.Error(t, err)
}
