package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "/tmp/briscola.sock", cfg.Server.SocketPath)
	assert.Equal(t, "briscola-users.ckpt", cfg.Server.CheckpointPath)
	assert.Equal(t, ".", cfg.Server.TranscriptDir)
	assert.Equal(t, "info", cfg.Server.LogLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.hcl")
	content := `
server {
  socket_path = "/tmp/test.sock"
  log_level   = "debug"
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.sock", cfg.Server.SocketPath)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	// Unset fields fall back to defaults.
	assert.Equal(t, "briscola-users.ckpt", cfg.Server.CheckpointPath)
	assert.Equal(t, ".", cfg.Server.TranscriptDir)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()

	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Server.TranscriptDir = dir
		return cfg
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Server.SocketPath = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.CheckpointPath = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.TranscriptDir = filepath.Join(dir, "missing")
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}
