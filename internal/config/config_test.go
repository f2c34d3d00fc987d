package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanchatmangpt/frozen-duckdb/internal/platform"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(platform.EnvCacheRoot, "")
	t.Setenv(EnvEngineVersion, "")
	t.Setenv(EnvOllamaURL, "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, platform.EngineVersion, cfg.Engine.Version)
	assert.Equal(t, "seanchatmangpt", cfg.Engine.ReleaseOwner)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.URL)
	assert.False(t, cfg.Mirror.Enabled())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
log:
  level: debug
  format: json
engine:
  version: 1.3.2
  sha256: abc123
mirror:
  endpoint: minio.internal:9000
  access_key: ak
  secret_key: sk
  bucket: engines
ollama:
  url: http://gpu-box:11434
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "1.3.2", cfg.Engine.Version)
	assert.Equal(t, "abc123", cfg.Engine.SHA256)
	assert.True(t, cfg.Mirror.Enabled())
	assert.Equal(t, "engines", cfg.Mirror.Bucket)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.URL)

	// Untouched fields keep their defaults.
	assert.Equal(t, "seanchatmangpt", cfg.Engine.ReleaseOwner)
	assert.Equal(t, "qwen3-coder:30b", cfg.Ollama.TextModel)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  version: 1.3.2\n"), 0o644))

	t.Setenv(EnvEngineVersion, "1.5.0")
	t.Setenv(EnvOllamaURL, "http://env-box:11434")
	t.Setenv(platform.EnvCacheRoot, "/var/cache/frozen")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Environment wins over the file.
	assert.Equal(t, "1.5.0", cfg.Engine.Version)
	assert.Equal(t, "http://env-box:11434", cfg.Ollama.URL)
	assert.Equal(t, "/var/cache/frozen", cfg.Engine.CacheRoot)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
