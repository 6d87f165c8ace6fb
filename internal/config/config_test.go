package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://api.openweathermap.org", cfg.Provider.BaseURL)
	assert.Equal(t, "data/2.5/weather", cfg.Provider.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Provider.HTTPTimeout)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WEATHER_API_KEY", "provider-key")
	t.Setenv("GATEWAY_API_KEYS", "key-one, key-two, ,key-three")
	t.Setenv("RATE_LIMIT_REQUESTS", "20")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("REDIS_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "provider-key", cfg.Provider.APIKey)
	assert.Equal(t, []string{"key-one", "key-two", "key-three"}, cfg.Auth.APIKeys)
	assert.Equal(t, 20, cfg.RateLimit.Limit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "not-a-number")
	t.Setenv("RATE_LIMIT_WINDOW", "not-a-duration")
	t.Setenv("REDIS_ENABLED", "not-a-bool")

	cfg := Load()

	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.Redis.Enabled)
}
