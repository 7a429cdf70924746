package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Generation GenerationConfig
	Tracing    TracingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port       string
	Env        string
	GinMode    string
	CORSOrigin string
	JWTSecret  string
	// GenerationTimeout bounds a trigger request once it is detached from the client.
	GenerationTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// GenerationConfig holds settings for the external generation service
type GenerationConfig struct {
	APIKey             string
	Model              string
	BaseURL            string
	MinCallInterval    time.Duration
	MaxRetries         int
	BackoffBase        time.Duration
	BackoffMultiplier  float64
	RequestTimeout     time.Duration
	GuidanceCacheTTL   time.Duration
	CacheSweepInterval time.Duration
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnv("PORT", "8080"),
			Env:               getEnv("ENV", "development"),
			GinMode:           getEnv("GIN_MODE", "debug"),
			CORSOrigin:        getEnv("CORS_ORIGIN", "http://localhost:5173"),
			JWTSecret:         getEnv("JWT_SECRET", ""),
			GenerationTimeout: getEnvAsDuration("GENERATION_TIMEOUT", 5*time.Minute),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "pawpack"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Generation: GenerationConfig{
			APIKey:             getEnv("GEMINI_API_KEY", ""),
			Model:              getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL:            getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			MinCallInterval:    getEnvAsDuration("AI_MIN_CALL_INTERVAL", 2*time.Second),
			MaxRetries:         getEnvAsInt("AI_MAX_RETRIES", 3),
			BackoffBase:        getEnvAsDuration("AI_BACKOFF_BASE", 5*time.Second),
			BackoffMultiplier:  getEnvAsFloat("AI_BACKOFF_MULTIPLIER", 3),
			RequestTimeout:     getEnvAsDuration("AI_REQUEST_TIMEOUT", 60*time.Second),
			GuidanceCacheTTL:   getEnvAsDuration("GUIDANCE_CACHE_TTL", 24*time.Hour),
			CacheSweepInterval: getEnvAsDuration("CACHE_SWEEP_INTERVAL", time.Hour),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "pawpack-backend"),
		},
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// MaintenanceDSN points at the default postgres database, used to create Name when it is missing.
func (c *DatabaseConfig) MaintenanceDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=postgres port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Port, c.SSLMode)
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
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
