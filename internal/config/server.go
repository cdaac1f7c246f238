package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server is the cookied process configuration, read from the environment.
type Server struct {
	DBPath           string
	Port             int
	AdminKey         string // Bearer token for admin endpoints. Empty = disabled.
	SessionID        string // Empty = resume the most recent save or start fresh.
	AccountID        string // Account the VIP checker is asked about.
	VIPServiceURL    string
	VIPServiceKey    string
	TuningPath       string
	AutosaveInterval time.Duration
	ClicksPerSecond  float64 // Per-IP click rate limit.
	LogLevel         slog.Level
	CORSOrigins      []string
	Seed             int64 // Non-zero selects a reproducible crit sequence.
}

// DefaultCORSOrigins are the local frontend dev servers.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// ServerFromEnv reads COOKIE_* variables, falling back to defaults.
func ServerFromEnv() Server {
	return Server{
		DBPath:           envOrDefault("COOKIE_DB_PATH", "data/cookies.db"),
		Port:             envIntOrDefault("COOKIE_PORT", 8080),
		AdminKey:         os.Getenv("COOKIE_ADMIN_KEY"),
		SessionID:        os.Getenv("COOKIE_SESSION_ID"),
		AccountID:        envOrDefault("COOKIE_ACCOUNT_ID", "local"),
		VIPServiceURL:    os.Getenv("COOKIE_VIP_URL"),
		VIPServiceKey:    os.Getenv("COOKIE_VIP_KEY"),
		TuningPath:       os.Getenv("COOKIE_TUNING"),
		AutosaveInterval: envDurationOrDefault("COOKIE_AUTOSAVE", 30*time.Second),
		ClicksPerSecond:  envFloatOrDefault("COOKIE_CLICK_RATE", 20),
		LogLevel:         envLevelOrDefault("COOKIE_LOG_LEVEL", slog.LevelInfo),
		CORSOrigins:      envListOrDefault("COOKIE_CORS_ORIGINS", DefaultCORSOrigins),
		Seed:             int64(envIntOrDefault("COOKIE_SEED", 0)),
	}
}

// envListOrDefault splits a comma-separated variable, dropping blanks.
func envListOrDefault(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring malformed integer env var", "key", key, "value", v)
	}
	return def
}

func envFloatOrDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
		slog.Warn("ignoring malformed float env var", "key", key, "value", v)
	}
	return def
}

func envDurationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		slog.Warn("ignoring malformed duration env var", "key", key, "value", v)
	}
	return def
}

func envLevelOrDefault(key string, def slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return def
}
