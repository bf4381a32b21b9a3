package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(cfg.DataDir, "data.json"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(cfg.DataDir, "roles.yaml"), cfg.Roles.File)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "blurple", cfg.UI.Theme)
	assert.Equal(t, 15, cfg.UI.BarWidth)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trailmap.yaml")
	content := `data_dir: ` + dir + `
storage:
  backend: sqlite
log:
  level: debug
  format: json
ui:
  theme: nord
  bar_width: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "trailmap.db"), cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "nord", cfg.UI.Theme)
	assert.Equal(t, 20, cfg.UI.BarWidth)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trailmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: "+dir+"\n"), 0o644))

	t.Setenv("TRAILMAP_STORAGE_PATH", filepath.Join(dir, "custom.json"))
	t.Setenv("TRAILMAP_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom.json"), cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Storage.Backend = "postgres"
	assert.Error(t, cfg.Validate())

	cfg, err = Default()
	require.NoError(t, err)
	cfg.UI.BarWidth = 0
	assert.Error(t, cfg.Validate())
}
