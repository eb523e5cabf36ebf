// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache backends selectable with CACHE_BACKEND
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Bound on every upstream HTTP/RPC call
	RequestTimeout time.Duration

	// API key for the Dune query-result API. Empty means the analytics endpoints fail
	// with a configuration error.
	DuneAPIKey string

	// Postgres connection string for the history store. Empty keeps history in memory.
	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	// Create tables on start
	HistoryMigrate bool

	// Cache backend: memory, redis or postgres
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Prometheus /metrics endpoint
	EnableMetrics bool

	// Request rate limiting; zero RPS disables it
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load creates a new Config from environment variables
func Load() Config {
	return Config{
		Port:           GetEnvOrDefault("PORT", "8080"),
		LogLevel:       strings.ToLower(GetEnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(GetEnvOrDefault("LOG_FORMAT", "text")),
		RequestTimeout: GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		DuneAPIKey:     GetEnvOrDefault("DUNE_API_KEY", ""),
		DatabaseURL:    GetEnvOrDefault("DATABASE_URL", ""),
		DBMaxConns:     GetEnvAsInt("DB_MAX_CONNS", 10),
		DBMinConns:     GetEnvAsInt("DB_MIN_CONNS", 1),
		HistoryMigrate: GetEnvAsBool("HISTORY_MIGRATE", true),
		CacheBackend:   strings.ToLower(GetEnvOrDefault("CACHE_BACKEND", CacheMemory)),
		RedisAddr:      GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  GetEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:        GetEnvAsInt("REDIS_DB", 0),
		OtelEndpoint:   GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableMetrics:  GetEnvAsBool("ENABLE_METRICS", true),
		RateLimitRPS:   GetEnvAsFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: GetEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
