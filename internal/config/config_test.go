package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "text", cfg.App.LogFormat)
	assert.Equal(t, "Europe/Paris", cfg.App.Timezone)
	assert.Equal(t, "bdc_session", cfg.Session.CookieName)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 30, cfg.Export.RateLimit)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOGO_PATH", "/srv/logo.png")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.App.LogFormat)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "/srv/logo.png", cfg.Logo.Path)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Server.CORSAllowedOrigins)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LOG_FORMAT", "xml"},
		{"PORT", "http"},
		{"LOGO_URL", "not a url"},
		{"TIMEZONE", "Mars/Olympus"},
		{"SESSION_TTL", "forever"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}
