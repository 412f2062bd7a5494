package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the runtime configuration shared by the server and dbtool.
type Config struct {
	Port        string
	StoreDriver string
	DBPath      string
	DatabaseURL string
	SeedPath    string
	RedisAddr   string
	SessionTTL  time.Duration
	LogLevel    string
}

// Get returns the environment variable key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found (using environment variables)")
	}

	ttl, err := time.ParseDuration(Get("SESSION_TTL", "12h"))
	if err != nil {
		return Config{}, fmt.Errorf("load config: SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return Config{}, fmt.Errorf("load config: SESSION_TTL must be positive, got %s", ttl)
	}

	cfg := Config{
		Port:        Get("PORT", "8080"),
		StoreDriver: strings.ToLower(Get("STORE_DRIVER", DriverSQLite)),
		DBPath:      Get("DB_PATH", "data/app.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SeedPath:    Get("SEED_PATH", "data/seeds/seed.json"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		SessionTTL:  ttl,
		LogLevel:    Get("LOG_LEVEL", "info"),
	}

	switch cfg.StoreDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return Config{}, fmt.Errorf("load config: DATABASE_URL is required for STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return Config{}, fmt.Errorf("load config: unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}
