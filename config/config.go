package config

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Matching  MatchingConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CatalogConfig locates the knowledge base
type CatalogConfig struct {
	Source       string `mapstructure:"source"` // "file", "sqlite" or "http"
	Path         string `mapstructure:"path"`
	URL          string `mapstructure:"url"`
	APIToken     string `mapstructure:"api_token"`
	GenericsPath string `mapstructure:"generics_path"`
}

// MatchingConfig holds the engine's tunable parameters
type MatchingConfig struct {
	AcceptanceThreshold float64 `mapstructure:"acceptance_threshold"`
	TieTolerance        float64 `mapstructure:"tie_tolerance"`
	CoverageWeight      float64 `mapstructure:"coverage_weight"`
	SpecificityWeight   float64 `mapstructure:"specificity_weight"`
	EnableFuzzyMatching bool    `mapstructure:"enable_fuzzy_matching"`
	FuzzyThreshold      float64 `mapstructure:"fuzzy_threshold"`
	ParallelThreshold   int     `mapstructure:"parallel_threshold"`
	EnableDebugLogging  bool    `mapstructure:"enable_debug_logging"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type      string        `mapstructure:"type"` // "memory", "redis" or "none"
	RedisURL  string        `mapstructure:"redis_url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file; an empty path searches the default locations
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/incilens/")
	}

	// INCILENS_MATCHING_TIE_TOLERANCE -> matching.tie_tolerance
	v.SetEnvPrefix("INCILENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so that AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Catalog defaults
	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.path", "./data/catalog.yaml")
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.api_token", "")
	v.SetDefault("catalog.generics_path", "")

	// Matching defaults
	v.SetDefault("matching.acceptance_threshold", 0.5)
	v.SetDefault("matching.tie_tolerance", 0.05)
	v.SetDefault("matching.coverage_weight", 0.8)
	v.SetDefault("matching.specificity_weight", 0.2)
	v.SetDefault("matching.enable_fuzzy_matching", false)
	v.SetDefault("matching.fuzzy_threshold", 0.92)
	v.SetDefault("matching.parallel_threshold", 64)
	v.SetDefault("matching.enable_debug_logging", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "incilens:")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.burst", 20)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Catalog.Source {
	case "file", "sqlite":
		if config.Catalog.Path == "" {
			return fmt.Errorf("catalog path is required for source %q (set INCILENS_CATALOG_PATH)", config.Catalog.Source)
		}
	case "http":
		if config.Catalog.URL == "" {
			return fmt.Errorf("catalog URL is required for source 'http' (set INCILENS_CATALOG_URL)")
		}
	default:
		return fmt.Errorf("catalog source must be 'file', 'sqlite' or 'http', got: %s", config.Catalog.Source)
	}

	m := config.Matching
	for name, value := range map[string]float64{
		"acceptance_threshold": m.AcceptanceThreshold,
		"tie_tolerance":        m.TieTolerance,
		"fuzzy_threshold":      m.FuzzyThreshold,
	} {
		if math.IsNaN(value) || value < 0 || value > 1 {
			return fmt.Errorf("matching.%s must be within [0,1], got: %v", name, value)
		}
	}
	if m.CoverageWeight < 0 || m.SpecificityWeight < 0 || m.CoverageWeight+m.SpecificityWeight <= 0 {
		return fmt.Errorf("matching weights must be non-negative with a positive sum, got: %v/%v",
			m.CoverageWeight, m.SpecificityWeight)
	}
	if m.ParallelThreshold < 0 {
		return fmt.Errorf("matching.parallel_threshold must not be negative, got: %d", m.ParallelThreshold)
	}

	switch config.Cache.Type {
	case "memory", "none":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when cache type is 'redis'")
		}
	default:
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'none', got: %s", config.Cache.Type)
	}

	if config.RateLimit.PerIP < 0 || config.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	return nil
}

// loadEnvFile loads KEY=VALUE pairs from ./.env into the process environment.
// Existing variables are never overridden; a missing file is not an error.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}
