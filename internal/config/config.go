package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Upstream UpstreamConfig `yaml:"upstream" envconfig:"UPSTREAM"`
	Cache    CacheConfig    `yaml:"cache" envconfig:"CACHE"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains CORS and rate limiting configuration.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains inbound rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/cotpulse.log"`
}

// UpstreamConfig describes the CFTC public reporting API and how hard we
// are allowed to lean on it.
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://publicreporting.cftc.gov/resource/6dca-aqww.json"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"12s"`
	// RPS/Burst bound the client-side token bucket shared by every
	// upstream call, independent of the batch grouping below.
	RPS   float64 `yaml:"rps" envconfig:"RPS" default:"10"`
	Burst int     `yaml:"burst" envconfig:"BURST" default:"10"`
	// BatchGroupSize and BatchGroupPause shape the latest-snapshot fan-out:
	// symbols are fetched in bounded groups with a short pause between
	// groups, a rate-limit courtesy rather than a correctness requirement.
	BatchGroupSize  int           `yaml:"batch_group_size" envconfig:"BATCH_GROUP_SIZE" default:"5"`
	BatchGroupPause time.Duration `yaml:"batch_group_pause" envconfig:"BATCH_GROUP_PAUSE" default:"150ms"`
	// Mock serves deterministic synthetic rows instead of calling the
	// CFTC, for offline development. Responses are flagged source=mock.
	Mock bool `yaml:"mock" envconfig:"MOCK" default:"false"`
}

// CacheConfig holds the TTLs for the two cache domains.
type CacheConfig struct {
	DataTTL time.Duration `yaml:"data_ttl" envconfig:"DATA_TTL" default:"1h"`
	APITTL  time.Duration `yaml:"api_ttl" envconfig:"API_TTL" default:"1h"`
}

// Load loads configuration from environment variables layered over an
// optional YAML file. Environment values take precedence.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom behaves like Load but reads the YAML layer from an explicit
// path, which may not exist.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	// COT_* environment variables and struct defaults first.
	if err := envconfig.Process("COT", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	// The YAML file fills whatever the environment left unset.
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			mergeZero(&cfg, &fileCfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// mergeZero copies file-config values into dst for fields the environment
// (or a default) did not populate.
func mergeZero(dst, file *Config) {
	if dst.Server.Port == 0 {
		dst.Server.Port = file.Server.Port
	}
	if dst.Server.RequestTimeout == 0 {
		dst.Server.RequestTimeout = file.Server.RequestTimeout
	}
	if dst.Logging.Level == "" {
		dst.Logging.Level = file.Logging.Level
	}
	if dst.Upstream.BaseURL == "" {
		dst.Upstream.BaseURL = file.Upstream.BaseURL
	}
	if len(dst.Security.AllowedOrigins) == 0 {
		dst.Security.AllowedOrigins = file.Security.AllowedOrigins
	}
	if dst.Cache.DataTTL == 0 {
		dst.Cache.DataTTL = file.Cache.DataTTL
	}
	if dst.Cache.APITTL == 0 {
		dst.Cache.APITTL = file.Cache.APITTL
	}
}

func configFilePath() string {
	if p := os.Getenv("COT_CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yaml"
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return fmt.Errorf("invalid upstream base URL: %s", c.Upstream.BaseURL)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	if c.Upstream.BatchGroupSize < 1 {
		return fmt.Errorf("batch group size must be at least 1")
	}
	if c.Cache.DataTTL <= 0 || c.Cache.APITTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive when enabled")
	}
	return nil
}
