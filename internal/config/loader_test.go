package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	req.NoError(err)
	req.Equal(path, resolved)
	req.Equal(Default(), cfg)

	_, statErr := os.Stat(path)
	req.NoError(statErr)
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	body := []byte("addr: \":9999\"\nrealtime:\n  max_queue_size: 7\n  stale_threshold: 90s\n")
	req.NoError(os.WriteFile(path, body, 0o600))
	t.Setenv("BUILDERSPACE_LOG_LEVEL", "debug")

	cfg, _, err := Load(nil, path)
	req.NoError(err)
	req.Equal(":9999", cfg.Addr)
	req.Equal(7, cfg.Realtime.MaxQueueSize)
	req.Equal(90*time.Second, cfg.Realtime.StaleThreshold)
	req.Equal("debug", cfg.LogLevel)
	// untouched values keep their defaults
	req.Equal(Default().Realtime.MaxQueueAge, cfg.Realtime.MaxQueueAge)
}

func TestUpdateFromOnlyOverridesNonZero(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1234", Realtime: RealtimeConfig{MaxQueueSize: 3}})

	require.Equal(t, ":1234", cfg.Addr)
	require.Equal(t, 3, cfg.Realtime.MaxQueueSize)
	require.Equal(t, Default().ShutdownTimeout, cfg.ShutdownTimeout)
}
