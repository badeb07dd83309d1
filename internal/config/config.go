package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Feed settings
	FeedURL   string
	MinVolume int // trends below this approximate search volume are dropped

	// Bluesky settings
	BlueskyHost       string
	BlueskyIdentifier string
	BlueskyPassword   string
	OutputLang        string // language tag attached to every post

	// Image settings
	MaxImageKB int // upload ceiling for embed thumbnails

	// Ledger settings
	LedgerPath string

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	MaxPostsPerRun int           // 0 = unlimited
	PostDelay      time.Duration // pause between publish calls
}

// fileConfig mirrors Config for the optional YAML overlay.
// Environment variables still win over file values.
type fileConfig struct {
	FeedURL        string `yaml:"feed_url"`
	MinVolume      *int   `yaml:"min_volume"`
	BlueskyHost    string `yaml:"bluesky_host"`
	OutputLang     string `yaml:"output_lang"`
	MaxImageKB     *int   `yaml:"max_image_kb"`
	LedgerPath     string `yaml:"ledger_path"`
	MaxPostsPerRun *int   `yaml:"max_posts_per_run"`
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		FeedURL:        "https://trends.google.co.jp/trending/rss?geo=JP",
		MinVolume:      500,
		BlueskyHost:    "https://bsky.social",
		OutputLang:     "ja",
		MaxImageKB:     900,
		LedgerPath:     "trends.db",
		RequestTimeout: 10 * time.Second,
		RetryAttempts:  3,
		RetryDelay:     5 * time.Second,
		MaxPostsPerRun: 10,
		PostDelay:      2 * time.Second,
	}

	if path := os.Getenv("TRENDSKY_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	// Load from environment
	cfg.BlueskyIdentifier = os.Getenv("BLUESKY_IDENTIFIER")
	cfg.BlueskyPassword = os.Getenv("BLUESKY_PASSWORD")

	cfg.FeedURL = getEnvOrDefault("FEED_URL", cfg.FeedURL)
	cfg.BlueskyHost = getEnvOrDefault("BLUESKY_HOST", cfg.BlueskyHost)
	cfg.OutputLang = getEnvOrDefault("OUTPUT_LANG", cfg.OutputLang)
	cfg.LedgerPath = getEnvOrDefault("LEDGER_PATH", cfg.LedgerPath)

	cfg.MinVolume = getEnvIntOrDefault("MIN_VOLUME", cfg.MinVolume)
	cfg.MaxImageKB = getEnvIntOrDefault("MAX_IMAGE_KB", cfg.MaxImageKB)
	cfg.MaxPostsPerRun = getEnvIntOrDefault("MAX_POSTS_PER_RUN", cfg.MaxPostsPerRun)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RetryDelay = d
		}
	}
	if v := os.Getenv("POST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.PostDelay = d
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

// applyFile merges an optional YAML config file into cfg.
func (c *Config) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&fc); err != nil {
		return err
	}

	if fc.FeedURL != "" {
		c.FeedURL = fc.FeedURL
	}
	if fc.MinVolume != nil && *fc.MinVolume >= 0 {
		c.MinVolume = *fc.MinVolume
	}
	if fc.BlueskyHost != "" {
		c.BlueskyHost = fc.BlueskyHost
	}
	if fc.OutputLang != "" {
		c.OutputLang = fc.OutputLang
	}
	if fc.MaxImageKB != nil && *fc.MaxImageKB > 0 {
		c.MaxImageKB = *fc.MaxImageKB
	}
	if fc.LedgerPath != "" {
		c.LedgerPath = fc.LedgerPath
	}
	if fc.MaxPostsPerRun != nil && *fc.MaxPostsPerRun >= 0 {
		c.MaxPostsPerRun = *fc.MaxPostsPerRun
	}

	return nil
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
	if c.BlueskyIdentifier == "" {
		return fmt.Errorf("BLUESKY_IDENTIFIER is required")
	}
	if c.BlueskyPassword == "" {
		return fmt.Errorf("BLUESKY_PASSWORD is required")
	}
	if c.FeedURL == "" {
		return fmt.Errorf("FEED_URL must not be empty")
	}
	if c.MinVolume < 0 {
		return fmt.Errorf("MIN_VOLUME must not be negative")
	}
	if c.MaxImageKB <= 0 {
		return fmt.Errorf("MAX_IMAGE_KB must be positive")
	}
	return nil
}
