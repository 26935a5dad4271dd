package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STUDYLOOP_CONFIG", "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Controller, cfg.Controller)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
controller:
  window_size: 7
  streak_length: 2
  allow_reuse: false
generator:
  max_attempts: 5
  retry_backoff: 2s
segmenter:
  target_chunk_size: 400
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("STUDYLOOP_LOG_LEVEL", "warn")
	t.Setenv("STUDYLOOP_ALLOW_REUSE", "true")
	t.Setenv("STUDYLOOP_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Controller.WindowSize)
	assert.Equal(t, 2, cfg.Controller.StreakLength)
	assert.Equal(t, 5, cfg.Controller.MaxDifficulty, "unset keys keep defaults")
	assert.True(t, cfg.Controller.AllowReuse, "env overrides file")
	assert.Equal(t, 5, cfg.Generator.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Generator.RetryBackoff)
	assert.Equal(t, 400, cfg.Segmenter.TargetChunkSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "redis", cfg.Embedder.Cache.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STUDYLOOP_CONFIG", "")
	os.Unsetenv("STUDYLOOP_USER")
	t.Cleanup(func() { os.Unsetenv("STUDYLOOP_USER") })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STUDYLOOP_USER=ana\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ana", cfg.User)
}

func TestValidate_NamesSection(t *testing.T) {
	cfg := Default()
	cfg.Controller.StreakLength = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "controller config")
}
