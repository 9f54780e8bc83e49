package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	u, err := url.Parse(cfg.Wiki.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid wiki.base_url %q: %w", cfg.Wiki.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("wiki.base_url must be http(s), got %q", cfg.Wiki.BaseURL)
	}
	if cfg.Wiki.IndexPage == "" {
		return fmt.Errorf("wiki.index_page must not be empty")
	}
	if len(cfg.Wiki.Sections) == 0 {
		return fmt.Errorf("wiki.sections must name at least one index heading")
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.Concurrency < 1 {
		return fmt.Errorf("fetcher.concurrency must be >= 1, got %d", cfg.Fetcher.Concurrency)
	}
	if cfg.Fetcher.Concurrency > 1000 {
		return fmt.Errorf("fetcher.concurrency must be <= 1000, got %d", cfg.Fetcher.Concurrency)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	if cfg.Export.Dir == "" {
		return fmt.Errorf("export.dir must not be empty")
	}

	if cfg.Mongo.Enabled {
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri must not be empty when mongo.enabled is set")
		}
		if cfg.Mongo.Database == "" {
			return fmt.Errorf("mongo.database must not be empty when mongo.enabled is set")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}
