package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	DBPath             string
	LogLevel           slog.Level
	LogFormat          string
	CacheSize          int
	RebuildTreeTypes   []string
	RebuildFromContent bool
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	// Walk up to find a project level .env
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		DBPath:           getEnv("FOREST_DB_PATH", "./data/forest-index.db"),
		LogFormat:        strings.ToLower(getEnv("FOREST_LOG_FORMAT", "text")),
		RebuildTreeTypes: splitList(getEnv("FOREST_REBUILD_TREE_TYPES", "default")),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("FOREST_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("FOREST_LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("FOREST_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	cacheSize, err := strconv.Atoi(getEnv("FOREST_CACHE_SIZE", "1024"))
	if err != nil {
		return nil, fmt.Errorf("FOREST_CACHE_SIZE must be a valid integer: %w", err)
	}
	if cacheSize <= 0 {
		return nil, fmt.Errorf("FOREST_CACHE_SIZE must be greater than 0")
	}
	cfg.CacheSize = cacheSize

	fromContent, err := strconv.ParseBool(getEnv("FOREST_REBUILD_FROM_CONTENT", "false"))
	if err != nil {
		return nil, fmt.Errorf("FOREST_REBUILD_FROM_CONTENT must be a boolean: %w", err)
	}
	cfg.RebuildFromContent = fromContent

	if len(cfg.RebuildTreeTypes) == 0 {
		return nil, fmt.Errorf("FOREST_REBUILD_TREE_TYPES must name at least one tree type")
	}

	// Create the data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
