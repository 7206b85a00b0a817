package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBPath        string
	ListenAddr    string
	AuthUser      string
	AuthPass      string
	AuthFile      string
	CacheTTL      time.Duration
	CacheMax      int
	MaxBodyBytes  int64
	DBBusyTimeout time.Duration
	DBLockTimeout time.Duration
}

func Load() Config {
	initEnvFile()

	cfg := Config{
		DBPath:     envOr("KNOTES_DB_PATH", "knotes.db"),
		ListenAddr: envOr("KNOTES_LISTEN_ADDR", "127.0.0.1:8080"),
		AuthUser:   os.Getenv("KNOTES_AUTH_USER"),
		AuthPass:   os.Getenv("KNOTES_AUTH_PASS"),
		AuthFile:   os.Getenv("KNOTES_AUTH_FILE"),
	}

	cfg.CacheTTL = parseDurationOr("KNOTES_CACHE_TTL", 5*time.Second)
	cfg.CacheMax = parseIntOr("KNOTES_CACHE_MAX", 100)
	cfg.MaxBodyBytes = int64(parseIntOr("KNOTES_MAX_BODY", 10<<20))
	cfg.DBBusyTimeout = parseDurationOr("KNOTES_DB_BUSY_TIMEOUT", 5*time.Second)
	cfg.DBLockTimeout = parseDurationOr("KNOTES_DB_LOCK_TIMEOUT", 3*time.Second)
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
