package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Backend names accepted in PREF_BACKEND.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

type AppConfig struct {
	Port string

	// Preference store selection and location.
	PrefBackend   string
	PrefDir       string
	PrefContainer string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Durable write retries before a save is reported as failed.
	StoreWriteRetries int
	StoreRetryBackoff time.Duration

	// How often store maintenance (value log GC) runs. 0 disables it.
	MaintenanceInterval time.Duration

	LogLevel        string
	LogFormat       string
	DefaultLanguage string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.PrefBackend = getenvDefault("PREF_BACKEND", BackendBadger)
	switch cfg.PrefBackend {
	case BackendMemory, BackendBadger, BackendRedis:
	default:
		return nil, fmt.Errorf("invalid PREF_BACKEND %q", cfg.PrefBackend)
	}
	cfg.PrefDir = getenvDefault("PREF_DIR", "data/preferences")
	cfg.PrefContainer = getenvDefault("PREF_CONTAINER", "local_setting")

	cfg.RedisAddr = getenvDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)

	cfg.StoreWriteRetries = getenvInt("STORE_WRITE_RETRIES", 3)
	backoff, err := time.ParseDuration(getenvDefault("STORE_RETRY_BACKOFF", "50ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_RETRY_BACKOFF: %w", err)
	}
	cfg.StoreRetryBackoff = backoff

	interval, err := time.ParseDuration(getenvDefault("STORE_MAINTENANCE_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAINTENANCE_INTERVAL: %w", err)
	}
	cfg.MaintenanceInterval = interval

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")
	cfg.DefaultLanguage = getenvDefault("DEFAULT_LANGUAGE", "en")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
