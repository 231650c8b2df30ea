// Package config loads planner configuration from aps.yaml and environment
// overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the tunable knobs of the planning engine.
type Config struct {
	// Database selects the persistence backend: "memory" or "sqlite".
	Database DatabaseConfig `mapstructure:"database"`

	// Planning bounds the search and recursion loops.
	Planning PlanningConfig `mapstructure:"planning"`

	// Log controls zap construction.
	Log LogConfig `mapstructure:"log"`
}

type DatabaseConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type PlanningConfig struct {
	// SearchBoundDays caps the forward end-date search window.
	SearchBoundDays int `mapstructure:"search_bound_days"`
	// ChainDepthBound caps rows per overflow chain.
	ChainDepthBound int `mapstructure:"chain_depth_bound"`
	// ExplosionDepthBound caps BOM recursion depth.
	ExplosionDepthBound int `mapstructure:"explosion_depth_bound"`
	// MinRemainingHours is the default threshold below which a day's
	// leftover capacity is ignored, for routes that don't set their own.
	MinRemainingHours string `mapstructure:"min_remaining_hours"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Backend: "sqlite",
			Path:    "data/aps.db",
		},
		Planning: PlanningConfig{
			SearchBoundDays:     365,
			ChainDepthBound:     100,
			ExplosionDepthBound: 100,
			MinRemainingHours:   "0",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from the given file (optional), falling back to
// ./aps.yaml, with APS_* environment overrides. Missing files are fine; a
// malformed file is not.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("database.backend", def.Database.Backend)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("planning.search_bound_days", def.Planning.SearchBoundDays)
	v.SetDefault("planning.chain_depth_bound", def.Planning.ChainDepthBound)
	v.SetDefault("planning.explosion_depth_bound", def.Planning.ExplosionDepthBound)
	v.SetDefault("planning.min_remaining_hours", def.Planning.MinRemainingHours)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("aps")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("APS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown database backend %q (want memory or sqlite)", c.Database.Backend)
	}
	if c.Database.Backend == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("sqlite backend requires database.path")
	}
	if c.Planning.SearchBoundDays <= 0 {
		return fmt.Errorf("planning.search_bound_days must be positive, got %d", c.Planning.SearchBoundDays)
	}
	if c.Planning.ChainDepthBound <= 0 {
		return fmt.Errorf("planning.chain_depth_bound must be positive, got %d", c.Planning.ChainDepthBound)
	}
	if c.Planning.ExplosionDepthBound <= 0 {
		return fmt.Errorf("planning.explosion_depth_bound must be positive, got %d", c.Planning.ExplosionDepthBound)
	}
	return nil
}
