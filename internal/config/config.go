// Package config provides configuration management for the AMAS core,
// generalizing the teacher's env > file > defaults precedence and
// Server/Storage/Performance/Logging sections (see the teacher's
// internal/config/config.go) to this domain. The teacher's FeatureFlags
// section is replaced by Whitelist, the closed configuration-key
// enum spec.md §6 requires the Parameter Store and LLM Advisor Loop to
// enforce.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the complete process configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Performance PerformanceConfig `toml:"performance"`
	Logging     LoggingConfig     `toml:"logging"`
	Reward      RewardConfig      `toml:"reward"`
	Advisor     AdvisorConfig     `toml:"advisor"`
}

// ServerConfig identifies this process for logs and traces.
type ServerConfig struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Environment string `toml:"environment"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Type selects the backend: "memory" or "sqlite".
	Type          string `toml:"type"`
	SQLitePath    string `toml:"sqlite_path"`
	FallbackType  string `toml:"fallback_type"`
}

// PerformanceConfig tunes concurrency and caching.
type PerformanceConfig struct {
	// UserLockShards is the number of shards in the per-user lock table
	// (internal/userlock), trading lock contention for memory.
	UserLockShards int `toml:"user_lock_shards"`
	// StateCacheSize is loaded and defaulted but not read by any
	// component in this module.
	StateCacheSize int `toml:"state_cache_size"`
}

// LoggingConfig controls obslog verbosity.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// RewardConfig configures the Delayed Reward Queue (spec.md §4.8).
type RewardConfig struct {
	// DefaultWindowSeconds is the default delay before a reward becomes
	// due; overridable per reward profile (spec.md §9 open question).
	DefaultWindowSeconds int    `toml:"default_window_seconds"`
	Backend              string `toml:"backend"` // "memory" or "redis"
	RedisAddr            string `toml:"redis_addr"`
}

// AdvisorConfig configures the weekly LLM Advisor Loop (spec.md §4.10).
type AdvisorConfig struct {
	LLMTimeoutSeconds int    `toml:"llm_timeout_seconds"`
	Model             string `toml:"model"`
	// APIKey is the Anthropic API key. Left empty, the loop falls back
	// to the heuristic advisor (spec.md §4.10 "LLM failures never abort
	// the weekly job" applies equally to "never configured").
	APIKey string `toml:"-"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:        "vocab-amas",
			Version:     "1.0.0",
			Environment: "development",
		},
		Storage: StorageConfig{
			Type:         "memory",
			FallbackType: "memory",
		},
		Performance: PerformanceConfig{
			UserLockShards: 64,
			StateCacheSize: 10000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Reward: RewardConfig{
			DefaultWindowSeconds: 300,
			Backend:              "memory",
		},
		Advisor: AdvisorConfig{
			LLMTimeoutSeconds: 30,
			Model:             "claude-sonnet-4-5-20250929",
		},
	}
}

// Load builds configuration from defaults, an optional TOML file, then
// environment variables, in that increasing order of precedence.
func Load(tomlPath string) (*Config, error) {
	cfg := Default()

	if tomlPath != "" {
		if _, err := toml.DecodeFile(tomlPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", tomlPath, err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("AMAS_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("AMAS_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("AMAS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("AMAS_REWARD_BACKEND"); v != "" {
		c.Reward.Backend = v
	}
	if v := os.Getenv("AMAS_REWARD_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Reward.DefaultWindowSeconds = n
		}
	}
	if v := os.Getenv("AMAS_REDIS_ADDR"); v != "" {
		c.Reward.RedisAddr = v
	}
	if v := os.Getenv("AMAS_USER_LOCK_SHARDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Performance.UserLockShards = n
		}
	}
	if v := os.Getenv("AMAS_ANTHROPIC_API_KEY"); v != "" {
		c.Advisor.APIKey = v
	}
}

// Validate checks invariants that must hold before the process starts.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}
	if c.Storage.Type == "sqlite" && c.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite storage requires storage.sqlite_path")
	}
	switch strings.ToLower(c.Reward.Backend) {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown reward backend: %s", c.Reward.Backend)
	}
	if c.Performance.UserLockShards <= 0 {
		return fmt.Errorf("performance.user_lock_shards must be positive")
	}
	return nil
}
