package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "http://localhost:8090")
	t.Setenv("JWT_SECRET", "secret")

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, defaultSQLiteDSN, cfg.DBConnection)
	assert.Equal(t, 168*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5, cfg.RateLimitAuth)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Empty(t, cfg.RedisURL)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "7")
	t.Setenv("TEST_INT_ZERO", "0")
	t.Setenv("TEST_INT_BAD", "seven")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_BAD", "yes please")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_DURATION_BAD", "soon")

	assert.Equal(t, 7, envInt("TEST_INT", 1))
	assert.Equal(t, 3, envInt("TEST_INT_ZERO", 3))
	assert.Equal(t, 3, envInt("TEST_INT_BAD", 3))
	assert.Equal(t, 3, envInt("TEST_INT_UNSET", 3))

	assert.True(t, envBool("TEST_BOOL", false))
	assert.True(t, envBool("TEST_BOOL_BAD", true))
	assert.False(t, envBool("TEST_BOOL_UNSET", false))

	assert.Equal(t, 90*time.Second, envDuration("TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, envDuration("TEST_DURATION_BAD", time.Minute))

	assert.Equal(t, "fallback", envString("TEST_STRING_UNSET", "fallback"))
}

func TestLoadDatabase(t *testing.T) {
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_CONNECTION", "postgres://localhost/goals")

	driver, connection := LoadDatabase()
	assert.Equal(t, "pgx", driver)
	assert.Equal(t, "postgres://localhost/goals", connection)
}
