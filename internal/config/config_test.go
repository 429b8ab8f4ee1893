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

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 19, cfg.Game.HandSize)
	assert.Equal(t, 10*time.Minute, cfg.Game.InitialTime)
	assert.Equal(t, 10, cfg.Game.VertexBonus)
	assert.Equal(t, 20, cfg.Game.ExclusiveVertexBonus)
	assert.Zero(t, cfg.Game.Seed)
	assert.False(t, cfg.Replay.Enabled)
	assert.Equal(t, "replays", cfg.Replay.Directory)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, 1, cfg.SelfPlay.Games)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 19, cfg.Game.HandSize)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
logging:
  level: debug
  format: json
game:
  hand_size: 7
  initial_time: 90s
  seed: 42
replay:
  enabled: true
  directory: /tmp/skemino-replays
selfplay:
  games: 3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 7, cfg.Game.HandSize)
	assert.Equal(t, 90*time.Second, cfg.Game.InitialTime)
	assert.Equal(t, uint64(42), cfg.Game.Seed)
	assert.True(t, cfg.Replay.Enabled)
	assert.Equal(t, "/tmp/skemino-replays", cfg.Replay.Directory)
	assert.Equal(t, 3, cfg.SelfPlay.Games)
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.Game.VertexBonus)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SKEMINO_GAME_HAND_SIZE", "5")
	t.Setenv("SKEMINO_DATABASE_URL", "postgres://localhost/skemino")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Game.HandSize)
	assert.Equal(t, "postgres://localhost/skemino", cfg.Database.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"hand size zero", func(c *Config) { c.Game.HandSize = 0 }},
		{"hand size too large", func(c *Config) { c.Game.HandSize = 20 }},
		{"no clock", func(c *Config) { c.Game.InitialTime = 0 }},
		{"negative bonus", func(c *Config) { c.Game.VertexBonus = -1 }},
		{"no connections", func(c *Config) { c.Database.MaxConns = 0 }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  hand_size: 25\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
