// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for the history and cache databases
	Port           int
	LogLevel       string
	DevMode        bool
	Simulations    int           // Default Monte Carlo draw count
	BootstrapDraws int           // Default bootstrap resample count
	CacheTTL       time.Duration // TTL for cached aligned price tables
}

// Load reads configuration from environment variables, with .env support.
func Load() (*Config, error) {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:        getEnv("RISKCALC_DATA_DIR", "./data"),
		LogLevel:       getEnv("RISKCALC_LOG_LEVEL", "info"),
		DevMode:        getEnvBool("RISKCALC_DEV_MODE", false),
		Port:           getEnvInt("RISKCALC_PORT", 8090),
		Simulations:    getEnvInt("RISKCALC_SIMULATIONS", 10000),
		BootstrapDraws: getEnvInt("RISKCALC_BOOTSTRAP_DRAWS", 1000),
		CacheTTL:       getEnvDuration("RISKCALC_CACHE_TTL", time.Hour),
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Simulations < 1 {
		return nil, fmt.Errorf("invalid simulation count %d", cfg.Simulations)
	}
	if cfg.BootstrapDraws < 2 {
		return nil, fmt.Errorf("invalid bootstrap draw count %d", cfg.BootstrapDraws)
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	cfg.DataDir = absDataDir

	return cfg, nil
}

// HistoryDBPath returns the price history database path.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// CacheDBPath returns the calculation cache database path.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
