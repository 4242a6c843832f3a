package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("quiescenceMs = 800\nlogLevel = \"debug\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.QuiescenceMs)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultDiagTimeoutMs, cfg.DiagTimeoutMs)
	assert.Equal(t, DefaultIdleShutdownMins, cfg.IdleShutdownMinutes)
}
