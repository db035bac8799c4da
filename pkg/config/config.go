package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Service     ServiceConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Geolocation GeolocationConfig
	Context     ContextConfig
}

// ServiceConfig holds service identity configuration
type ServiceConfig struct {
	Name string
	Env  string
}

// StorageConfig selects the durable state-store backend
type StorageConfig struct {
	Backend    string // "memory", "sqlite" or "redis"
	SQLitePath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// GeolocationConfig holds the static geolocation fix used when no live
// provider is wired in by the host application
type GeolocationConfig struct {
	Latitude  float64
	Longitude float64
	AccuracyM float64
}

// ContextConfig holds search-context engine tuning
type ContextConfig struct {
	RetentionDays    int
	SnapshotInterval time.Duration
	RetentionSweep   time.Duration
	IdleThreshold    time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "search-context"),
			Env:  getEnv("SERVICE_ENV", "development"),
		},
		Storage: StorageConfig{
			Backend:    getEnv("STORAGE_BACKEND", "sqlite"),
			SQLitePath: getEnv("STORAGE_SQLITE_PATH", "searchcontext.db"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Geolocation: GeolocationConfig{
			Latitude:  getEnvAsFloat("GEO_STATIC_LAT", 6.5244),
			Longitude: getEnvAsFloat("GEO_STATIC_LON", 3.3792),
			AccuracyM: getEnvAsFloat("GEO_STATIC_ACCURACY_M", 25),
		},
		Context: ContextConfig{
			RetentionDays:    getEnvAsInt("CONTEXT_RETENTION_DAYS", 90),
			SnapshotInterval: getEnvAsDuration("CONTEXT_SNAPSHOT_INTERVAL", 30*time.Second),
			RetentionSweep:   getEnvAsDuration("CONTEXT_RETENTION_SWEEP", 24*time.Hour),
			IdleThreshold:    getEnvAsDuration("CONTEXT_IDLE_THRESHOLD", 5*time.Minute),
		},
	}, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
