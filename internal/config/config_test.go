package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 168, cfg.JWT.TTLHours)
	assert.Equal(t, "EUR", cfg.Shop.Currency)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.AWS.Enabled())
	assert.Equal(t, 10, cfg.Server.LoginRateLimit)
	assert.Equal(t, 10, cfg.Server.LoginRateWindow)
	assert.Equal(t, 20, cfg.Server.RateLimitRPS)
	assert.Equal(t, 40, cfg.Server.RateLimitBurst)
}

func TestLoadRateLimitsFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("LOGIN_RATE_LIMIT", "3")
	t.Setenv("LOGIN_RATE_WINDOW_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Server.RateLimitRPS)
	assert.Equal(t, 3, cfg.Server.LoginRateLimit)
	assert.Equal(t, 15, cfg.Server.LoginRateWindow)

	t.Setenv("LOGIN_RATE_WINDOW_MINUTES", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "LOGIN_RATE_WINDOW_MINUTES")
}

func TestValidateRejectsUnsafeProductionConfig(t *testing.T) {
	cfg := &Config{
		Environment: "production",
		Database:    DatabaseConfig{Driver: "postgres", Password: "secret"},
		JWT:         JWTConfig{SecretKey: defaultJWTSecret, TTLHours: 168},
		Shop:        ShopConfig{Currency: "EUR"},
	}
	assert.ErrorContains(t, cfg.Validate(), "JWT secret")

	cfg.JWT.SecretKey = "rotated"
	cfg.Database.Password = ""
	assert.ErrorContains(t, cfg.Validate(), "database password")

	cfg.Database.Password = "secret"
	cfg.Shop.Currency = "XXXX"
	assert.ErrorContains(t, cfg.Validate(), "SHOP_CURRENCY")

	cfg.Shop.Currency = "EUR"
	cfg.Database.Driver = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "DB_DRIVER")
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://shop.example.com ,")
	assert.Equal(t, []string{"http://localhost:3000", "https://shop.example.com"}, getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil))
}
