package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/peili/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "peili.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
inventory:
  url: http://localhost:8080
  username: svc-peili
  password: hunter2
aws:
  region: eu-north-1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 100, cfg.Sync.PageSize)
	assert.Equal(t, 5, cfg.Sync.BatchSize)
	assert.Equal(t, 50, cfg.Sync.StaleChunkSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.AssetTypes())
}

func TestLoadConfigReadsAllSections(t *testing.T) {
	path := writeConfig(t, `
inventory:
  url: http://store.internal:8080
  username: svc-peili
  password: hunter2
aws:
  region: us-east-1
sync:
  interval: 30s
  page_size: 25
  batch_size: 10
  stale_chunk_size: 100
  types:
    - compute-instance
    - network
otel:
  endpoint: otel.internal:4317
  insecure: true
log:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 25, cfg.Sync.PageSize)
	assert.Equal(t, []types.AssetType{types.AssetComputeInstance, types.AssetNetwork}, cfg.AssetTypes())
	assert.Equal(t, "otel.internal:4317", cfg.OTEL.Endpoint)
	assert.True(t, cfg.OTEL.Insecure)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigCredentialsFromEnv(t *testing.T) {
	t.Setenv("PEILI_INVENTORY_USERNAME", "env-user")
	t.Setenv("PEILI_INVENTORY_PASSWORD", "env-pass")

	path := writeConfig(t, `
inventory:
  url: http://localhost:8080
aws:
  region: eu-north-1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.Inventory.Username)
	assert.Equal(t, "env-pass", cfg.Inventory.Password)
}

func TestLoadConfigRejectsMissingURL(t *testing.T) {
	path := writeConfig(t, `
inventory:
  username: svc-peili
  password: hunter2
aws:
  region: eu-north-1
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventory.url")
}

func TestLoadConfigRejectsUnknownAssetType(t *testing.T) {
	path := writeConfig(t, `
inventory:
  url: http://localhost:8080
  username: svc-peili
  password: hunter2
aws:
  region: eu-north-1
sync:
  types:
    - mainframe
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mainframe")
}

func TestLoadConfigRejectsTinyInterval(t *testing.T) {
	path := writeConfig(t, `
inventory:
  url: http://localhost:8080
  username: svc-peili
  password: hunter2
aws:
  region: eu-north-1
sync:
  interval: 100ms
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.interval")
}
