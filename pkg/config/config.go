package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Ledger storage
	StorageMode string // "memory", "sqlite" or "postgres"
	SQLitePath  string

	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string

	// Market read cache
	CacheMaxMarkets int64
	CacheTTL        time.Duration

	// Event feed
	EventBufferSize int
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Storage defaults
		StorageMode: getEnvOrDefault("STORAGE_MODE", "memory"),
		SQLitePath:  getEnvOrDefault("SQLITE_PATH", "data/settlement.db"),

		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "privymarket"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "privymarket123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "privymarket"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		// Cache defaults
		CacheMaxMarkets: getInt64OrDefault("MARKET_CACHE_MAX_ITEMS", 10_000),
		CacheTTL:        getDurationOrDefault("MARKET_CACHE_TTL", 5*time.Second),

		// Event feed defaults
		EventBufferSize: getIntOrDefault("EVENT_BUFFER_SIZE", 256),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	switch c.StorageMode {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("STORAGE_MODE must be 'memory', 'sqlite' or 'postgres', got %q", c.StorageMode)
	}

	if c.StorageMode == "sqlite" && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH cannot be empty in sqlite mode")
	}

	if c.CacheMaxMarkets <= 0 {
		return fmt.Errorf("MARKET_CACHE_MAX_ITEMS must be positive, got %d", c.CacheMaxMarkets)
	}

	if c.EventBufferSize <= 0 {
		return fmt.Errorf("EVENT_BUFFER_SIZE must be positive, got %d", c.EventBufferSize)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
