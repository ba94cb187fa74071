package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, path, resolved)
	require.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "addr: \":4000\"\nreport_errors: false\nshutdown_timeout: 9s\nclient_buffer: 8\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("MICROOM_ANNOUNCE_ROOMS", "true")
	t.Setenv("MICROOM_LOG_LEVEL", "debug")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, ":4000", cfg.Addr)
	require.False(t, cfg.ReportErrors)
	require.True(t, cfg.AnnounceRooms)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 9*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 8, cfg.ClientBuffer)
	require.Equal(t, "http://localhost:5173", cfg.AllowedOrigin)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":4000\"\n"), 0o600))
	t.Setenv("MICROOM_ADDR", ":5000")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.Addr)
}

func TestResolveConfigPathUsesDefaultDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	t.Setenv("MICROOM_CONFIG_DEFAULT_PATH", dir)

	require.Equal(t, filepath.Join(dir, "config.yaml"), resolveConfigPath(""))
	require.Equal(t, "/x/y.yaml", resolveConfigPath("/x/y.yaml"))
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":9000", LogLevel: "error"})
	require.Equal(t, ":9000", cfg.Addr)
	require.Equal(t, "error", cfg.LogLevel)
	require.Equal(t, Default().ShutdownTimeout, cfg.ShutdownTimeout)
	require.True(t, cfg.ReportErrors)
}

func TestHubOptions(t *testing.T) {
	cfg := Default()
	cfg.AnnounceRooms = true
	opts := cfg.HubOptions()
	require.True(t, opts.ReportErrors)
	require.True(t, opts.AnnounceRooms)
}
