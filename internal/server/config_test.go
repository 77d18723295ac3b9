package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trump304.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.ListenAddr())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout())
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
server {
  address              = "0.0.0.0"
  port                 = 9090
  log_level            = "debug"
  turn_timeout_seconds = 45
}

store {
  backend = "sqlite"
  path    = "/var/lib/trump304/games.db"
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout())
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/var/lib/trump304/games.db", cfg.Store.Path)
}

func TestLoadConfigPartialFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
server {
  port = 9999
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9999", cfg.ListenAddr())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout())
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadConfigBadHCL(t *testing.T) {
	path := writeConfig(t, `server { port = `)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid port",
		},
		{
			name:    "zero turn timeout",
			mutate:  func(c *Config) { c.Server.TurnTimeoutSeconds = 0 },
			wantErr: "turn timeout",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Store = &StoreSettings{Backend: "sqlite"} },
			wantErr: "requires a path",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "redis" },
			wantErr: "unknown store backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
