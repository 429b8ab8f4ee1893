package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
	Replay   ReplayConfig   `mapstructure:"replay"`
	Database DatabaseConfig `mapstructure:"database"`
	SelfPlay SelfPlayConfig `mapstructure:"selfplay"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// GameConfig holds the rules parameters of new games.
type GameConfig struct {
	HandSize             int           `mapstructure:"hand_size"`
	InitialTime          time.Duration `mapstructure:"initial_time"`
	VertexBonus          int           `mapstructure:"vertex_bonus"`
	ExclusiveVertexBonus int           `mapstructure:"exclusive_vertex_bonus"`
	// Seed makes deals and dice reproducible; 0 seeds from the clock.
	Seed uint64 `mapstructure:"seed"`
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// DatabaseConfig configures the PostgreSQL pool. An empty URL disables persistence.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// SelfPlayConfig configures the headless bot-vs-bot host.
type SelfPlayConfig struct {
	Games int `mapstructure:"games"`
}

const maxHandSize = 19

// Load reads configuration from path (optional, YAML) and SKEMINO_* environment
// variables on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SKEMINO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.hand_size", maxHandSize)
	v.SetDefault("game.initial_time", 10*time.Minute)
	v.SetDefault("game.vertex_bonus", 10)
	v.SetDefault("game.exclusive_vertex_bonus", 20)
	v.SetDefault("game.seed", 0)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)

	v.SetDefault("selfplay.games", 1)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Game.HandSize < 1 || c.Game.HandSize > maxHandSize {
		return fmt.Errorf("game.hand_size must be between 1 and %d, got %d", maxHandSize, c.Game.HandSize)
	}
	if c.Game.InitialTime <= 0 {
		return fmt.Errorf("game.initial_time must be positive, got %s", c.Game.InitialTime)
	}
	if c.Game.VertexBonus < 0 || c.Game.ExclusiveVertexBonus < 0 {
		return fmt.Errorf("vertex bonuses must not be negative")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database.max_conns must be at least 1, got %d", c.Database.MaxConns)
	}
	if c.SelfPlay.Games < 0 {
		return fmt.Errorf("selfplay.games must not be negative, got %d", c.SelfPlay.Games)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
