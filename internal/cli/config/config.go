package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the pchp configuration
type Config struct {
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Index     IndexConfig     `mapstructure:"index"`
	Log       LogConfig       `mapstructure:"log"`
}

// DiscoveryConfig represents metadata discovery configuration
type DiscoveryConfig struct {
	ActiveScopes  []string `mapstructure:"active_scopes"`
	Workers       int      `mapstructure:"workers"`
	StrictNotNull bool     `mapstructure:"strict_not_null"`
}

// CacheConfig represents report cache configuration
type CacheConfig struct {
	// RedisAddr selects the Redis store; empty keeps reports in memory.
	RedisAddr string        `mapstructure:"redis_addr"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// IndexConfig represents symbol index configuration
type IndexConfig struct {
	Database string `mapstructure:"database"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from pchp.yml or pchp.yaml in the working
// directory. Environment variables prefixed with PCHP_ override file values,
// e.g. PCHP_CACHE_REDIS_ADDR.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads the configuration from dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("discovery.active_scopes", []string{})
	v.SetDefault("discovery.workers", 4)
	v.SetDefault("discovery.strict_not_null", false)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.prefix", "pchp:")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("index.database", "")
	v.SetDefault("log.level", "info")

	v.SetConfigName("pchp")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("pchp")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// InProject checks if dir holds a pchp configuration file
func InProject(dir string) bool {
	for _, name := range []string{"pchp.yml", "pchp.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// GetProjectRoot walks up from the working directory to the first
// directory holding pchp.yml
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if InProject(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a pchp project (no pchp.yml found)")
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Discovery.Workers < 1 {
		return fmt.Errorf("discovery.workers must be at least 1, got: %d", cfg.Discovery.Workers)
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got: %s", cfg.Cache.TTL)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", cfg.Log.Level)
	}
	for _, scope := range cfg.Discovery.ActiveScopes {
		if strings.TrimSpace(scope) == "" {
			return fmt.Errorf("discovery.active_scopes must not contain empty names")
		}
	}
	return nil
}
