// Package config loads the analyzer configuration: source endpoints, the
// per-category cache TTL table, and the client-side guard settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete analyzer configuration.
type Config struct {
	Sources map[string]SourceConfig `yaml:"sources"`
	Cache   CacheConfig             `yaml:"cache"`
}

// SourceConfig configures one upstream source endpoint and its guards.
type SourceConfig struct {
	BaseURL   string        `yaml:"base_url"`
	TimeoutMS int           `yaml:"timeout_ms"` // per-request timeout
	RPS       float64       `yaml:"rps"`        // requests per second
	Burst     int           `yaml:"burst"`      // burst capacity
	Circuit   CircuitConfig `yaml:"circuit"`
}

// CircuitConfig configures the per-source circuit breaker.
type CircuitConfig struct {
	ConsecutiveFailures int `yaml:"consecutive_failures"` // failures to open the circuit
	OpenSecs            int `yaml:"open_secs"`            // seconds before a half-open probe
}

// CacheConfig configures the category cache.
type CacheConfig struct {
	Capacity int            `yaml:"capacity"`  // per-category entry bound
	TTLSecs  map[string]int `yaml:"ttl_secs"`  // category -> TTL seconds
	RedisURL string         `yaml:"redis_url"` // empty = in-memory cache
}

// Default returns the built-in configuration: local endpoints, the reference
// TTL bands, and moderate guard settings.
func Default() *Config {
	return &Config{
		Sources: map[string]SourceConfig{
			"rpc": {
				BaseURL:   "http://localhost:9944",
				TimeoutMS: 5000,
				RPS:       20,
				Burst:     40,
				Circuit:   CircuitConfig{ConsecutiveFailures: 5, OpenSecs: 30},
			},
			"indexer": {
				BaseURL:   "http://localhost:8088/api/v1/graphql",
				TimeoutMS: 15000,
				RPS:       10,
				Burst:     20,
				Circuit:   CircuitConfig{ConsecutiveFailures: 5, OpenSecs: 30},
			},
		},
		Cache: CacheConfig{
			Capacity: 1024,
			TTLSecs: map[string]int{
				"balances":     30,
				"networkStats": 15,
				"transactions": 120,
				"logs":         120,
				"auctions":     300,
				"committee":    600,
				"contracts":    3600,
			},
		},
	}
}

// Load reads a YAML config file, layering it over Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for nonsensical values.
func (c *Config) Validate() error {
	for name, src := range c.Sources {
		if src.BaseURL == "" {
			return fmt.Errorf("source %s: base_url is required", name)
		}
		if src.TimeoutMS <= 0 {
			return fmt.Errorf("source %s: timeout_ms must be positive, got %d", name, src.TimeoutMS)
		}
		if src.RPS < 0 {
			return fmt.Errorf("source %s: rps must not be negative, got %v", name, src.RPS)
		}
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache: capacity must be positive, got %d", c.Cache.Capacity)
	}
	for category, secs := range c.Cache.TTLSecs {
		if secs <= 0 {
			return fmt.Errorf("cache: ttl for category %s must be positive, got %d", category, secs)
		}
	}
	return nil
}

// TTLs converts the configured TTL table to durations.
func (c *CacheConfig) TTLs() map[string]time.Duration {
	ttls := make(map[string]time.Duration, len(c.TTLSecs))
	for category, secs := range c.TTLSecs {
		ttls[category] = time.Duration(secs) * time.Second
	}
	return ttls
}

// Timeout returns the source's per-request timeout.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}
