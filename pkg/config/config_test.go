package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 43, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ResponseTimeout)
	assert.Equal(t, 32, cfg.Server.MaxParallel)
	assert.Equal(t, "registry", cfg.Registry.Path)
	assert.Equal(t, "cache", cfg.Cache.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whoisd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 4343
  response_timeout: 10s
log:
  level: debug
  json: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4343, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ResponseTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	// untouched sections keep defaults
	assert.Equal(t, 32, cfg.Server.MaxParallel)
}

func TestLoadAPIKeyEnv(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "k-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "k-test", cfg.Keys.OMDB)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Server.Port = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Server.MaxParallel = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Registry.Path = ""
	assert.Error(t, bad.Validate())
}
