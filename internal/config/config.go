package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// RedisAddr is a host:port pair for run-state storage and queues.
	RedisAddr string

	// DataDir holds static resources (enemy templates).
	DataDir string

	// WorkerID identifies a worker process; empty means auto-generated.
	WorkerID string
}

func Load() (*Config, error) {
	// A .env file is a development convenience; its absence is fine.
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		DataDir:     getEnv("DATA_DIR", "./data"),
		WorkerID:    getEnv("WORKER_ID", ""),
	}, nil
}

// RedisURL returns the address in URL form for clients that parse URLs.
func (c *Config) RedisURL() string {
	if strings.Contains(c.RedisAddr, "://") {
		return c.RedisAddr
	}
	return "redis://" + c.RedisAddr
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
