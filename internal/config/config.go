// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	// Listen address for the HTTP service.
	Addr string

	// Data directory holding document.json, assets/, checkpoints/ and the
	// catalog database.
	DataDir string

	// Logging
	LogLevel string

	// How long after a mutation the document save is debounced. Zero means
	// write-through.
	SaveDebounce time.Duration

	// Upload limit for one asset blob.
	MaxAssetBytes int64

	// CORS for browser-based editors on other local origins.
	EnableCORS bool
}

// Load reads configuration from the environment, with defaults suited to a
// single-user local service.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("REM_ADDR", ":8787"),
		DataDir:       getEnv("REM_DATA_DIR", "./rem-data"),
		LogLevel:      getEnv("REM_LOG_LEVEL", "info"),
		SaveDebounce:  time.Duration(getEnvInt("REM_SAVE_DEBOUNCE_MS", 500)) * time.Millisecond,
		MaxAssetBytes: int64(getEnvInt("REM_MAX_ASSET_BYTES", 32<<20)),
		EnableCORS:    getEnvBool("REM_ENABLE_CORS", true),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration for nonsense values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	if c.MaxAssetBytes <= 0 {
		return fmt.Errorf("max asset size must be positive, got %d", c.MaxAssetBytes)
	}
	if c.SaveDebounce < 0 {
		return fmt.Errorf("save debounce must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
