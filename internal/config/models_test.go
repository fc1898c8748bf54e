package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmswan/glowcast/internal/effects"
)

func TestNewManagerWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)
	require.Equal(t, path, m.GetConfigPath())

	_, err = os.Stat(path)
	require.NoError(t, err, "defaults must be written on first run")

	cfg := m.Get()
	require.Equal(t, 1280, cfg.Video.Width)
	require.Equal(t, 30, cfg.Video.FPS)
	require.Equal(t, 8080, cfg.ServerPort)
	require.True(t, cfg.Overlay.Enabled)
	require.Equal(t, `{time} | {bitrateAndTotal}`, cfg.Overlay.Template)
}

func TestManagerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	m.SetPort(9191)
	m.SetLogLevel("debug")
	m.UpdateEffects(effects.Settings{Crop: true, Brightness: 12})
	m.UpdateOverlayPosition(0.5, 0.25)
	require.NoError(t, m.Save())

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	cfg := reloaded.Get()
	require.Equal(t, 9191, cfg.ServerPort)
	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.Effects.Crop)
	require.InDelta(t, 12.0, cfg.Effects.Brightness, 1e-9)
	require.InDelta(t, 0.5, cfg.Overlay.X, 1e-9)
	require.InDelta(t, 0.25, cfg.Overlay.Y, 1e-9)
}

func TestManagerPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: 9000\n"), 0o644))

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	require.Equal(t, 9000, cfg.ServerPort)
	// Unspecified fields fall back to defaults rather than zero values.
	require.Equal(t, 1280, cfg.Video.Width)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestManagerRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml::"), 0o644))

	_, err := NewManager(path)
	require.Error(t, err)
}

func TestGetReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	cfg.ServerPort = 1
	require.Equal(t, 8080, m.Get().ServerPort)
}
