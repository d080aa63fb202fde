// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/database"
)

// Store backends selectable with STORE.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Port            string
	Store           string
	LogLevel        string
	ShutdownTimeout time.Duration

	Database database.Config

	RedisAddr string
	RedisDB   int
	CacheTTL  time.Duration
}

// Load reads .env (if present) and then the process environment, falling
// back to local-development defaults.
func Load() Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return Config{
		Port:            getEnv("PORT", "8080"),
		Store:           getEnv("STORE", StorePostgres),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "workshops"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getPoolSize("DB_MAX_CONNS", 20),
		},
		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisDB:   getInt("REDIS_DB", 0),
		CacheTTL:  getDuration("AVAILABILITY_CACHE_TTL", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getPoolSize falls back when the value is not a positive int32, so it
// never wraps when narrowed.
func getPoolSize(key string, fallback int32) int32 {
	n := getInt(key, int(fallback))
	if n < 1 || n > math.MaxInt32 {
		return fallback
	}
	return int32(n)
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
