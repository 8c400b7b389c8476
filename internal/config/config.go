// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Session SessionConfig
	Logo    LogoConfig
	Export  ExportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s" validate:"gt=0"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s" validate:"gt=0"`
	// CORSAllowedOrigins applies to the /api routes.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env       string `envconfig:"APP_ENV" default:"development" validate:"oneof=development production test"`
	Dev       bool   `envconfig:"DEV" default:"false"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Timezone  string `envconfig:"TIMEZONE" default:"Europe/Paris" validate:"required"`
}

// SessionConfig controls the in-memory form sessions.
type SessionConfig struct {
	CookieName    string        `envconfig:"SESSION_COOKIE" default:"bdc_session" validate:"required,printascii"`
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"12h" validate:"gt=0"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m" validate:"gt=0"`
}

// LogoConfig selects where the document logo comes from. Path wins over URL;
// with neither set the embedded logo is used.
type LogoConfig struct {
	Path    string        `envconfig:"LOGO_PATH"`
	URL     string        `envconfig:"LOGO_URL" validate:"omitempty,url"`
	Timeout time.Duration `envconfig:"LOGO_TIMEOUT" default:"5s" validate:"gt=0"`
}

// ExportConfig throttles PDF generation.
type ExportConfig struct {
	RateLimit int `envconfig:"EXPORT_RATE_LIMIT" default:"30" validate:"gte=0"`
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.App.Env == "production"
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.App.Timezone)
}

// SlogLevel maps LOG_LEVEL to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Load reads an optional .env file, then the environment.
// Precedence: explicit env var > .env file > default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.App.Timezone, err)
	}
	return &cfg, nil
}
