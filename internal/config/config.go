package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries all pipeline settings. Values come from environment
// variables with sane defaults; the source list lives in a YAML file.
type Config struct {
	// Source list
	SourcesConfigPath string

	// Feed fetching
	FetchTimeout    time.Duration
	FetchRetries    int
	FetchRetryDelay time.Duration

	// OG image fallback
	OgImageTimeout time.Duration
	OgImageRetries int
	OgHostInterval time.Duration
	OgCacheTTL     time.Duration

	// Processing
	ArticleCap       int
	MinTitleLength   int
	MinSummaryLength int
	MaxSummaryLength int

	// Persistence
	StoreBackend  string // "postgres" or "file"
	DatabaseURL   string
	FileStorePath string

	// App
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		SourcesConfigPath: "configs/sources.yaml",
		FetchTimeout:      15 * time.Second,
		FetchRetries:      3,
		FetchRetryDelay:   1 * time.Second,
		OgImageTimeout:    8 * time.Second,
		OgImageRetries:    2,
		OgHostInterval:    500 * time.Millisecond,
		OgCacheTTL:        1 * time.Hour,
		ArticleCap:        500,
		MinTitleLength:    10,
		MinSummaryLength:  25,
		MaxSummaryLength:  250,
		StoreBackend:      "file",
		FileStorePath:     "articles.json",
	}

	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.StoreBackend = getEnvOrDefault("STORE_BACKEND", cfg.StoreBackend)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.FileStorePath = getEnvOrDefault("FILE_STORE_PATH", cfg.FileStorePath)

	if v := getEnvIntOrDefault("FETCH_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.FetchTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("FETCH_RETRIES", 0); v > 0 {
		cfg.FetchRetries = v
	}
	if v := getEnvIntOrDefault("OG_IMAGE_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.OgImageTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("ARTICLE_CAP", 0); v > 0 {
		cfg.ArticleCap = v
	}
	if v := getEnvIntOrDefault("OG_HOST_INTERVAL_MS", 0); v > 0 {
		cfg.OgHostInterval = time.Duration(v) * time.Millisecond
	}

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.StoreBackend != "postgres" && c.StoreBackend != "file" {
		return fmt.Errorf("STORE_BACKEND must be 'postgres' or 'file'")
	}
	if c.StoreBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is 'postgres'")
	}
	return nil
}
