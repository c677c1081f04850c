package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watcher.yaml")
	data := `watch_paths:
  - /srv/a
  - /srv/b
ignore_patterns: ["*.tmp", ".git"]
debounce: 50ms
worker_count: 4
settle_timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/a", "/srv/b"}, cfg.WatchPaths)
	assert.Equal(t, []string{"*.tmp", ".git"}, cfg.IgnorePatterns)
	assert.Equal(t, 50*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 2*time.Second, cfg.SettleTimeout)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debounce: [nope"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := ConfigWatcher{Debounce: time.Second, WorkerCount: 2, SettleTimeout: time.Minute}.withDefaults()

	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, time.Minute, cfg.SettleTimeout)
}
