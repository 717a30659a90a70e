// Package config reads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"timetracker/internal/util"
)

const envPrefix = "TIMETRACKER_"

// ErrMissingSecret is returned when a command needs to sign tokens and no
// secret is configured.
var ErrMissingSecret = errors.New(envPrefix + "JWT_SECRET is not set")

type Config struct {
	Addr          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	Location      *time.Location
	PageSize      int
	LogLevel      string
	LogJSON       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RateLimit     int
	RateWindow    time.Duration
	SecureCookies bool
}

// Load reads .env (if present) and the environment. Variables already set in
// the environment win over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:          util.EnvOrDefault(envPrefix+"ADDR", ":8080"),
		DBPath:        util.EnvOrDefault(envPrefix+"DB_PATH", "data/timetracker.db"),
		JWTSecret:     util.EnvOrDefault(envPrefix+"JWT_SECRET", ""),
		TokenTTL:      util.EnvDuration(envPrefix+"TOKEN_TTL", 24*time.Hour),
		PageSize:      util.EnvInt(envPrefix+"PAGE_SIZE", 20),
		LogLevel:      util.EnvOrDefault(envPrefix+"LOG_LEVEL", "info"),
		LogJSON:       util.EnvBool(envPrefix+"LOG_JSON", false),
		RedisAddr:     util.EnvOrDefault(envPrefix+"REDIS_ADDR", ""),
		RedisPassword: util.EnvOrDefault(envPrefix+"REDIS_PASSWORD", ""),
		RedisDB:       util.EnvInt(envPrefix+"REDIS_DB", 0),
		RateLimit:     util.EnvInt(envPrefix+"RATE_LIMIT", 120),
		RateWindow:    util.EnvDuration(envPrefix+"RATE_WINDOW", time.Minute),
		SecureCookies: util.EnvBool(envPrefix+"SECURE_COOKIES", false),
	}

	zone := util.EnvOrDefault(envPrefix+"TIMEZONE", "UTC")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Config{}, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	cfg.Location = loc

	if cfg.PageSize <= 0 {
		return Config{}, fmt.Errorf("%sPAGE_SIZE must be positive, got %d", envPrefix, cfg.PageSize)
	}
	if cfg.RateLimit < 0 {
		return Config{}, fmt.Errorf("%sRATE_LIMIT must not be negative, got %d", envPrefix, cfg.RateLimit)
	}
	return cfg, nil
}

// RequireSecret fails when no token secret is configured.
func (c Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	return nil
}
