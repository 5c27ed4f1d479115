package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "./snapps", cfg.Kernel.BuiltinPath)
	assert.Equal(t, 5*time.Second, cfg.Bus.RequestTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Store.StateBase)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("SNAPPER_BUILTIN_PATH", "/custom/snapps")
	t.Setenv("SNAPPER_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/custom/snapps", cfg.Kernel.BuiltinPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadOrDefaultNeverFails(t *testing.T) {
	cfg := LoadOrDefault()
	require.NotNil(t, cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapper.toml")
	contents := `
[Kernel]
BuiltinPath = "/from/file"

[Logging]
Level = "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.Kernel.BuiltinPath)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFileMissingPath(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}
