// Package config loads the cache settings of a PxGraf process.
//
// Sources are layered, later ones winning:
//  1. Defaults
//  2. Optional YAML file (CACHE_CONFIG_PATH, then DefaultConfigPaths)
//  3. Environment variables with the PXGRAF_CACHE_ prefix
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/pxgraf/task-cache/eviction"
)

const (
	// ConfigPathEnvVar points at a YAML file to load.
	ConfigPathEnvVar = "CACHE_CONFIG_PATH"

	// EnvPrefix is stripped from environment variables before they are
	// matched to keys: PXGRAF_CACHE_SIZE_LIMIT -> size_limit.
	EnvPrefix = "PXGRAF_CACHE_"
)

// DefaultConfigPaths are tried in order when ConfigPathEnvVar is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"/etc/pxgraf/cache.yaml",
}

// Config holds the settings of the shared store and the caches on top of it.
type Config struct {
	// SizeLimit is the total size budget of the store. 0 is unbounded.
	SizeLimit int64 `koanf:"size_limit" validate:"gte=0"`

	Shards int `koanf:"shards" validate:"gte=1,lte=1024"`

	EvictionPolicy string `koanf:"eviction_policy" validate:"oneof=LRU LFU FIFO"`

	// SlidingExpiration and AbsoluteExpiration are the defaults handed to
	// Set by the read-through coordinator.
	SlidingExpiration  time.Duration `koanf:"sliding_expiration" validate:"gte=0"`
	AbsoluteExpiration time.Duration `koanf:"absolute_expiration" validate:"gte=0"`

	// FreshnessInterval is how long a registration counts as Fresh.
	FreshnessInterval time.Duration `koanf:"freshness_interval" validate:"gte=0"`

	// SweepInterval drives the background expiry sweep. 0 disables it.
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gte=0"`

	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogDevelopment switches to the human-readable console logger.
	LogDevelopment bool `koanf:"log_development"`

	// MetricsAddr enables the Prometheus endpoint when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		SizeLimit:          1000,
		Shards:             8,
		EvictionPolicy:     string(eviction.LRU),
		SlidingExpiration:  15 * time.Minute,
		AbsoluteExpiration: 12 * time.Hour,
		FreshnessInterval:  60 * time.Second,
		SweepInterval:      time.Minute,
		LogLevel:           "info",
	}
}

// Load reads the layered configuration and validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	c.EvictionPolicy = strings.ToUpper(c.EvictionPolicy)
	c.LogLevel = strings.ToLower(c.LogLevel)
	return validator.New().Struct(c)
}

// Eviction returns the parsed eviction policy.
func (c *Config) Eviction() (eviction.PolicyType, error) {
	return eviction.Parse(strings.ToUpper(c.EvictionPolicy))
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func envTransformFunc(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
}
