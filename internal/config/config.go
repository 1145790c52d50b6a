package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	// loads a .env file from the working directory, if present
	_ "github.com/joho/godotenv/autoload"
)

// Config holds application configuration read from environment variables.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	// APISecret guards game creation when set.
	APISecret    string
	AllowOrigins []string

	LogLevel  string
	LogFormat string

	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Every malformed value is reported, not just the first.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		APISecret:    os.Getenv("CHESS_API_SECRET"),
		AllowOrigins: splitList(getenv("CORS_ALLOW_ORIGINS", "*")),
		LogLevel:     strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(getenv("LOG_FORMAT", "json")),
	}

	var errs error

	if n, err := strconv.Atoi(cfg.Port); err != nil || n < 1 || n > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("PORT: %q is not a valid port", cfg.Port))
	}

	rps, err := strconv.ParseFloat(getenv("RATE_LIMIT_RPS", "0"), 64)
	switch {
	case err != nil:
		errs = multierror.Append(errs, fmt.Errorf("RATE_LIMIT_RPS: %w", err))
	case rps < 0:
		errs = multierror.Append(errs, fmt.Errorf("RATE_LIMIT_RPS: must not be negative"))
	}
	cfg.RateLimitRPS = rps

	burst, err := strconv.Atoi(getenv("RATE_LIMIT_BURST", "20"))
	switch {
	case err != nil:
		errs = multierror.Append(errs, fmt.Errorf("RATE_LIMIT_BURST: %w", err))
	case burst < 1:
		errs = multierror.Append(errs, fmt.Errorf("RATE_LIMIT_BURST: must be at least 1"))
	}
	cfg.RateLimitBurst = burst

	timeout, err := time.ParseDuration(getenv("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
	}
	cfg.ShutdownTimeout = timeout

	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		errs = multierror.Append(errs, fmt.Errorf("LOG_FORMAT: %q must be json or console", cfg.LogFormat))
	}

	if errs != nil {
		return nil, errs
	}
	return cfg, nil
}

// Store names the persistence backend the configuration selects.
func (c *Config) Store() string {
	switch {
	case c.DatabaseURL != "":
		return "postgres"
	case c.RedisURL != "":
		return "redis"
	default:
		return "memory"
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
