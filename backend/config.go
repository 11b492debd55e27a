package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "your_secret_key_please_change_in_production"

// Config is everything the server reads from the environment.
type Config struct {
	DatabaseURL     string
	JWTSecret       string
	Env             string
	Port            int
	AllowedOrigins  []string
	LogLevel        string
	LogFormat       string
	MatchLimit      int
	AlertThreshold  int
	ShutdownTimeout time.Duration
}

// IsDevelopment reports whether GO_ENV is unset or "development".
func (c Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// loadConfig reads an optional .env file and then the process environment.
func loadConfig() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL: valueOrDefault("DATABASE_URL", "user=admin password=password dbname=unihavendb sslmode=disable"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Env:         os.Getenv("GO_ENV"),
		LogLevel:    valueOrDefault("LOG_LEVEL", "info"),
		LogFormat:   valueOrDefault("LOG_FORMAT", "json"),
		AllowedOrigins: parseCSV(valueOrDefault("ALLOWED_ORIGINS",
			"http://localhost:5173,http://127.0.0.1:5173,http://localhost:3001,http://127.0.0.1:3001")),
	}

	var err error
	if cfg.Port, err = intFromEnv("PORT", 8080); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d is out of range", cfg.Port)
	}
	if cfg.MatchLimit, err = intFromEnv("MATCH_LIMIT", 20); err != nil {
		return Config{}, err
	}
	if cfg.MatchLimit <= 0 || cfg.MatchLimit > maxMatchLimit {
		return Config{}, fmt.Errorf("MATCH_LIMIT must be between 1 and %d", maxMatchLimit)
	}
	if cfg.AlertThreshold, err = intFromEnv("MATCH_ALERT_THRESHOLD", 60); err != nil {
		return Config{}, err
	}
	if cfg.AlertThreshold < 0 || cfg.AlertThreshold > 100 {
		return Config{}, fmt.Errorf("MATCH_ALERT_THRESHOLD must be between 0 and 100")
	}
	cfg.ShutdownTimeout = 10 * time.Second
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return Config{}, fmt.Errorf("JWT_SECRET is required when GO_ENV=%s", cfg.Env)
		}
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return n, nil
}

func parseCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
