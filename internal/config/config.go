// Package config provides centralized configuration for the weather gateway.
// Values come from environment variables (optionally a .env file in
// development) with sensible defaults; there is no runtime reconfiguration.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates settings for every gateway component.
type Config struct {
	Server        ServerConfig
	Provider      ProviderConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	Redis         RedisConfig
	Observability ObservabilityConfig
}

// ServerConfig contains HTTP server settings and timeouts.
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ProviderConfig contains the upstream weather provider settings.
// APIKey is the provider's key, distinct from the gateway keys in AuthConfig.
type ProviderConfig struct {
	BaseURL     string
	Endpoint    string
	APIKey      string
	HTTPTimeout time.Duration
}

// AuthConfig contains the allow-listed gateway API keys.
type AuthConfig struct {
	APIKeys []string
}

// RateLimitConfig contains per-client rate limiting settings.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RedisConfig contains settings for the distributed rate limiter.
type RedisConfig struct {
	Enabled      bool
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ObservabilityConfig contains tracing and metrics settings.
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
}

// Load reads configuration from the environment and returns a Config.
// A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Provider: ProviderConfig{
			BaseURL:     getEnv("WEATHER_API_BASE_URL", "https://api.openweathermap.org"),
			Endpoint:    getEnv("WEATHER_API_ENDPOINT", "data/2.5/weather"),
			APIKey:      getEnv("WEATHER_API_KEY", ""),
			HTTPTimeout: getEnvAsDuration("WEATHER_API_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			APIKeys: getEnvAsList("GATEWAY_API_KEYS"),
		},
		RateLimit: RateLimitConfig{
			Limit:  getEnvAsInt("RATE_LIMIT_REQUESTS", 5),
			Window: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Observability: ObservabilityConfig{
			ServiceName:    "weather-gateway",
			ServiceVersion: getEnv("VERSION", "1.0.0"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:     0.1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}

	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string) []string {
	value := os.Getenv(key)

	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}

	return list
}
