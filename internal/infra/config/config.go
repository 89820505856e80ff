package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	BackendMemory      = "memory"
	BackendValkey      = "valkey"
	BackendPostgres    = "postgres"
	BackendObjectStore = "objectstore"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Advisory AdvisoryConfig `yaml:"advisory"`
	Cache    CacheConfig    `yaml:"cache"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// AdvisoryConfig controls the travel advisory domain.
type AdvisoryConfig struct {
	UpstreamBaseURL string        `yaml:"upstreamBaseUrl"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	CacheKey        string        `yaml:"cacheKey"`
	CacheTTL        time.Duration `yaml:"cacheTtl"`
	Source          string        `yaml:"source"`
}

// CacheConfig selects where the bulletin snapshot is persisted.
type CacheConfig struct {
	Backend     string            `yaml:"backend"`
	Valkey      ValkeyConfig      `yaml:"valkey"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Addr string `yaml:"addr"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ObjectStoreConfig describes an S3-compatible bucket.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("ADVISORY_UPSTREAM_BASE_URL"); v != "" {
		cfg.Advisory.UpstreamBaseURL = v
	}
	if v := os.Getenv("ADVISORY_REQUEST_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Advisory.RequestTimeout = parsed
		}
	}
	if v := os.Getenv("ADVISORY_CACHE_KEY"); v != "" {
		cfg.Advisory.CacheKey = v
	}
	if v := os.Getenv("ADVISORY_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Advisory.CacheTTL = parsed
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("CACHE_POSTGRES_DSN"); v != "" {
		cfg.Cache.Postgres.DSN = v
	}
	if v := os.Getenv("CACHE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("CACHE_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("CACHE_OBJECT_ENDPOINT"); v != "" {
		cfg.Cache.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("CACHE_OBJECT_ACCESS_KEY"); v != "" {
		cfg.Cache.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("CACHE_OBJECT_SECRET_KEY"); v != "" {
		cfg.Cache.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("CACHE_OBJECT_BUCKET"); v != "" {
		cfg.Cache.ObjectStore.Bucket = v
	}
	if v := os.Getenv("CACHE_OBJECT_REGION"); v != "" {
		cfg.Cache.ObjectStore.Region = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Advisory: AdvisoryConfig{
			UpstreamBaseURL: "https://cadataapi.state.gov/api",
			RequestTimeout:  10 * time.Second,
			CacheKey:        "travel_advisories_cache",
			CacheTTL:        24 * time.Hour,
			Source:          "US Department of State",
		},
		Cache: CacheConfig{
			Backend: BackendMemory,
			Postgres: PostgresConfig{
				MaxConns: 4,
				MinConns: 0,
			},
			ObjectStore: ObjectStoreConfig{
				Region: "auto",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Advisory.UpstreamBaseURL) == "" {
		return errors.New("advisory.upstreamBaseUrl cannot be empty")
	}
	if c.Advisory.RequestTimeout <= 0 {
		return errors.New("advisory.requestTimeout must be positive")
	}
	if strings.TrimSpace(c.Advisory.CacheKey) == "" {
		return errors.New("advisory.cacheKey cannot be empty")
	}
	if c.Advisory.CacheTTL <= 0 {
		return errors.New("advisory.cacheTtl must be positive")
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendValkey:
		if strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
			return errors.New("cache.valkey.addr cannot be empty when the valkey backend is selected")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Cache.Postgres.DSN) == "" {
			return errors.New("cache.postgres.dsn cannot be empty when the postgres backend is selected")
		}
	case BackendObjectStore:
		if strings.TrimSpace(c.Cache.ObjectStore.Endpoint) == "" || strings.TrimSpace(c.Cache.ObjectStore.Bucket) == "" {
			return errors.New("cache.objectStore.endpoint and bucket are required when the objectstore backend is selected")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
