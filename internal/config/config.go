package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort           int
	DatabasePath         string
	JWTSecret            string
	TokenTTL             time.Duration // lifetime of an issued token
	MaxSessionsPerUser   int           // oldest session evicted beyond this
	AvatarMaxBytes       int64
	SessionPruneSchedule string // standard cron expression for the pruner
	Env                  string // "development" or "production"
}

// Load loads configuration from environment variables or sets defaults.
// JWT_SECRET has no default: tokens signed with a guessable secret are
// forgeable, so the process refuses to start without one.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	ttlHoursStr := getEnv("TOKEN_TTL_HOURS", "24")
	ttlHours, err := strconv.Atoi(ttlHoursStr)
	if err != nil {
		return nil, err
	}

	maxSessionsStr := getEnv("MAX_SESSIONS_PER_USER", "20")
	maxSessions, err := strconv.Atoi(maxSessionsStr)
	if err != nil {
		return nil, err
	}

	avatarMaxStr := getEnv("AVATAR_MAX_BYTES", "1048576")
	avatarMax, err := strconv.ParseInt(avatarMaxStr, 10, 64)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:           port,
		DatabasePath:         getEnv("DATABASE_PATH", "./taskhub.db"),
		JWTSecret:            secret,
		TokenTTL:             time.Duration(ttlHours) * time.Hour,
		MaxSessionsPerUser:   maxSessions,
		AvatarMaxBytes:       avatarMax,
		SessionPruneSchedule: getEnv("SESSION_PRUNE_SCHEDULE", "@hourly"),
		Env:                  getEnv("APP_ENV", "development"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
