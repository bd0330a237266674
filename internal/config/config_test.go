package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "HTTP_ADDR", "JWT_TTL", "TEACHER_CACHE_TTL", "CORS_ALLOWED_ORIGINS",
		"NOTIFY_INTERVAL", "NOTIFY_BATCH", "NOTIFY_RATE", "NOTIFY_MAX_ATTEMPTS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DB_DSN", "postgres://localhost/tutoring")
	t.Setenv("JWT_SECRET", "secret")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Empty(t, cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.TeacherCacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, NotifyConfig{Interval: 5 * time.Second, BatchSize: 50, RatePerSec: 20, MaxAttempts: 5}, cfg.Notify)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("NOTIFY_BATCH", "10")
	t.Setenv("NOTIFY_RATE", "2.5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10, cfg.Notify.BatchSize)
	assert.Equal(t, 2.5, cfg.Notify.RatePerSec)
}

func TestFromEnv_RequiredFields(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost/tutoring")
	t.Setenv("JWT_SECRET", "")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestFromEnv_InvalidValues(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_TTL", "tomorrow")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_TTL")

	t.Setenv("JWT_TTL", "")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "-1")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "NOTIFY_MAX_ATTEMPTS")
}
