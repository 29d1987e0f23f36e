package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIURL is returned when no upstream API base URL is configured.
var ErrMissingAPIURL = errors.New("CAREPOINT_API_URL is not set")

const defaultAPITimeout = 30 * time.Second

// Config holds all configuration for the application
type Config struct {
	// Upstream REST API
	API APIConfig `yaml:"api"`

	// Web front end
	Web WebConfig `yaml:"web"`

	// Redis Configuration (optional session storage for the web front end)
	Redis RedisConfig `yaml:"redis"`

	// Logging Configuration
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds upstream API configuration
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// WebConfig holds web front end configuration
type WebConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// InsecureCookies drops the Secure attribute for plain-HTTP local development
	InsecureCookies bool `yaml:"insecure_cookies"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL string `yaml:"url"` // empty means in-memory session storage
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

// Load loads configuration from an optional YAML file (CAREPOINT_CONFIG)
// and environment variables. Environment variables win over the file.
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg := &Config{
		API: APIConfig{
			Timeout: defaultAPITimeout,
		},
		Web: WebConfig{
			Addr:           ":3000",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path := os.Getenv("CAREPOINT_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CAREPOINT_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}

	if v := os.Getenv("CAREPOINT_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CAREPOINT_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}

	if v := os.Getenv("WEB_ADDR"); v != "" {
		cfg.Web.Addr = v
	}

	if v := os.Getenv("WEB_ALLOWED_ORIGINS"); v != "" {
		cfg.Web.AllowedOrigins = splitList(v)
	}

	if v := os.Getenv("WEB_INSECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WEB_INSECURE_COOKIES: %w", err)
		}
		cfg.Web.InsecureCookies = b
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	return nil
}

// Validate checks that the configuration can be used to reach the API.
// A missing API URL is a hard failure rather than a silent fallback host.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return ErrMissingAPIURL
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid CAREPOINT_API_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid CAREPOINT_API_URL %q: scheme must be http or https", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid CAREPOINT_API_URL %q: missing host", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive, got %s", c.API.Timeout)
	}

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
