package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultUserAgent is sent with every wiki and image request. The wiki
// serves identical markup to browsers, so a browser string keeps the
// fixture pages stable.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// Config is the root configuration for the exporter.
type Config struct {
	Wiki    WikiConfig    `mapstructure:"wiki"    yaml:"wiki"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Export  ExportConfig  `mapstructure:"export"  yaml:"export"`
	Mongo   MongoConfig   `mapstructure:"mongo"   yaml:"mongo"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// WikiConfig describes the target MediaWiki instance.
type WikiConfig struct {
	// BaseURL is the wiki origin, e.g. https://endfield.wiki.gg.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// IndexPage is the page title listing all crafting facilities.
	IndexPage string `mapstructure:"index_page" yaml:"index_page"`

	// Sections are the index-page headings whose list boxes hold
	// facility links.
	Sections []string `mapstructure:"sections" yaml:"sections"`

	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// FetcherConfig controls page and image fetching.
type FetcherConfig struct {
	// Type selects the fetcher implementation: "http" or "browser".
	Type string `mapstructure:"type" yaml:"type"`

	// Concurrency caps in-flight requests within each pipeline phase.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
}

// ExportConfig controls the output tree.
type ExportConfig struct {
	// Dir is the root of the export tree (JSON files and image cache).
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// MongoConfig controls the optional MongoDB export sink.
type MongoConfig struct {
	Enabled  bool   `mapstructure:"enabled"  yaml:"enabled"`
	URI      string `mapstructure:"uri"      yaml:"uri"`
	Database string `mapstructure:"database" yaml:"database"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the optional metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Wiki: WikiConfig{
			BaseURL:   "https://endfield.wiki.gg",
			IndexPage: "EFDB",
			Sections:  []string{"Processing", "Assembly"},
			UserAgent: DefaultUserAgent,
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			Concurrency:     8,
			RequestTimeout:  30 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			MaxIdleConns:    100,
			IdleConnTimeout: 90 * time.Second,
		},
		Export: ExportConfig{
			Dir: "export",
		},
		Mongo: MongoConfig{
			Enabled:  false,
			URI:      "mongodb://localhost:27017",
			Database: "efdb",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
