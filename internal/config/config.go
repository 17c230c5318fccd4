package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-256-bit-secret-change-in-production"

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string

	// JWT settings
	JWTSecret           string
	AccessTokenLifetime time.Duration

	// Session settings
	SessionSecret string

	// Authorization code settings
	AuthCodeLifetime time.Duration

	// Device code settings
	DeviceCodeLifetime time.Duration
	PollingInterval    int // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // DSN or sqlite path

	// Metrics
	MetricsEnabled bool
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "oauth.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:          getEnv("SERVER_ADDR", ":8080"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
		JWTSecret:           getEnv("JWT_SECRET", defaultJWTSecret),
		AccessTokenLifetime: getEnvDuration("ACCESS_TOKEN_LIFETIME", 30*time.Minute),
		SessionSecret:       getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		AuthCodeLifetime:    getEnvDuration("AUTH_CODE_LIFETIME", 10*time.Minute),
		DeviceCodeLifetime:  getEnvDuration("DEVICE_CODE_LIFETIME", 30*time.Minute),
		PollingInterval:     getEnvInt("DEVICE_POLLING_INTERVAL", 5),
		DatabaseDriver:      driver,
		DatabaseDSN:         dsn,
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate checks the configuration for values that are unusable or
// unsafe outside local development.
func (c *Config) Validate() error {
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if c.PollingInterval <= 0 {
		return errors.New("DEVICE_POLLING_INTERVAL must be positive")
	}
	if os.Getenv("GIN_MODE") == "release" && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed in release mode")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
