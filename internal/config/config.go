package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Log      LogConfig
	Token    TokenConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite store file path
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  zapcore.Level
	Format string // "json" or "console"
}

// TokenConfig contains session token settings. An empty Secret disables issuing.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	level, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	format := strings.ToLower(getEnv("LOG_FORMAT", "json"))
	if format != "json" && format != "console" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or console", format)
	}
	ttl, err := getEnvDuration("TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", ttl)
	}
	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "users.db"),
		},
		Log: LogConfig{
			Level:  level,
			Format: format,
		},
		Token: TokenConfig{
			Secret: getEnv("TOKEN_SECRET", ""),
			TTL:    ttl,
		},
	}, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	secret := "unset"
	if c.Token.Secret != "" {
		secret = "***"
	}
	return fmt.Sprintf("Config{DB: %s, Log: %s/%s, Token: %s ttl=%s}",
		c.Database.Path, c.Log.Level, c.Log.Format, secret, c.Token.TTL)
}
