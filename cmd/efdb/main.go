package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/efdb-export/internal/config"
	"github.com/IshaanNene/efdb-export/internal/export"
	"github.com/IshaanNene/efdb-export/internal/fetcher"
	"github.com/IshaanNene/efdb-export/internal/media"
	"github.com/IshaanNene/efdb-export/internal/observability"
	"github.com/IshaanNene/efdb-export/internal/parser"
	"github.com/IshaanNene/efdb-export/internal/pipeline"
	"github.com/IshaanNene/efdb-export/internal/wiki"
)

var (
	cfgFile     string
	verbose     bool
	exportDir   string
	baseURL     string
	concurrency int
	fetcherType string
	withMongo   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "efdb",
		Short: "efdb — Endfield wiki database exporter",
		Long: `efdb scrapes the Endfield wiki and exports the crafting database.

It discovers all Processing and Assembly facilities, parses each facility
page for recipes and general info, enriches every referenced item from its
own page, downloads all images into a local cache, and writes items.json,
facilities.json and recipes.json.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run the full export pipeline",
		Long:  "Fetch, parse and export the wiki's item, facility and recipe data plus images.",
		RunE:  runExport,
	}

	cmd.Flags().StringVarP(&exportDir, "output", "o", "", "export directory (default \"export\")")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "wiki origin to scrape")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "max in-flight requests per phase")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "fetcher type: http or browser")
	cmd.Flags().BoolVar(&withMongo, "mongo", false, "also write datasets to MongoDB")

	return cmd
}

// runExport executes the export command.
func runExport(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting export",
		"wiki", cfg.Wiki.BaseURL,
		"index", cfg.Wiki.IndexPage,
		"concurrency", cfg.Fetcher.Concurrency,
		"output", cfg.Export.Dir,
	)

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	pageFetcher, httpFetcher, err := buildFetchers(cfg, logger)
	if err != nil {
		return err
	}
	defer pageFetcher.Close()
	defer httpFetcher.Close()

	client, err := wiki.NewClient(cfg.Wiki.BaseURL, pageFetcher, logger)
	if err != nil {
		return fmt.Errorf("create wiki client: %w", err)
	}

	sink, err := buildSink(cfg, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	pipe := pipeline.New(cfg, client,
		parser.NewDiscoveryParser(cfg.Wiki.Sections, logger),
		// Images are plain files; they always go through HTTP even when
		// pages are fetched through the browser.
		media.NewDownloader(httpFetcher, metrics, logger),
		sink, metrics, logger)

	// Ctrl-C cancels the run; there is no partial-success recovery.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	ds, err := pipe.Run(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	elapsed := time.Since(start)
	stats := metrics.Snapshot()

	logger.Info("export complete",
		"elapsed", elapsed,
		"pages", stats["pages_fetched"],
		"images_downloaded", stats["images_downloaded"],
		"images_skipped", stats["images_skipped"],
		"bytes", stats["bytes_downloaded"],
	)

	fmt.Printf("Export completed in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Facilities: %d\n", len(ds.Facilities()))
	fmt.Printf("   Items:      %d\n", len(ds.Items()))
	fmt.Printf("   Recipes:    %d\n", len(ds.Recipes()))
	fmt.Printf("   Images:     %v downloaded, %v cached\n", stats["images_downloaded"], stats["images_skipped"])
	fmt.Printf("   Output:     %s\n", cfg.Export.Dir)

	return nil
}

// buildFetchers creates the page fetcher per config plus the HTTP fetcher
// used for image downloads. With fetcher.type http they are the same
// instance.
func buildFetchers(cfg *config.Config, logger *slog.Logger) (pages fetcher.Fetcher, images *fetcher.HTTPFetcher, err error) {
	images = fetcher.NewHTTPFetcher(cfg, logger)

	switch cfg.Fetcher.Type {
	case "browser":
		pages, err = fetcher.NewBrowserFetcher(cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("create browser fetcher: %w", err)
		}
	default:
		pages = images
	}
	return pages, images, nil
}

// buildSink assembles the JSON sink plus the optional MongoDB sink.
func buildSink(cfg *config.Config, logger *slog.Logger) (export.Sink, error) {
	jsonSink := export.NewJSONSink(cfg.Export.Dir, logger)
	if !cfg.Mongo.Enabled {
		return jsonSink, nil
	}

	mongoSink, err := export.NewMongoSink(cfg.Mongo.URI, cfg.Mongo.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("create mongo sink: %w", err)
	}
	return export.NewMultiSink([]export.Sink{jsonSink, mongoSink}, logger), nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("efdb %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Wiki:\n")
			fmt.Printf("  Base URL:        %s\n", cfg.Wiki.BaseURL)
			fmt.Printf("  Index Page:      %s\n", cfg.Wiki.IndexPage)
			fmt.Printf("  Sections:        %v\n", cfg.Wiki.Sections)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:            %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Concurrency:     %d\n", cfg.Fetcher.Concurrency)
			fmt.Printf("  Request Timeout: %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Max Body Size:   %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nExport:\n")
			fmt.Printf("  Directory:       %s\n", cfg.Export.Dir)
			fmt.Printf("\nMongo:\n")
			fmt.Printf("  Enabled:         %v\n", cfg.Mongo.Enabled)
			fmt.Printf("  Database:        %s\n", cfg.Mongo.Database)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:         %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:            %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if exportDir != "" {
		cfg.Export.Dir = exportDir
	}
	if baseURL != "" {
		cfg.Wiki.BaseURL = baseURL
	}
	if concurrency > 0 {
		cfg.Fetcher.Concurrency = concurrency
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = fetcherType
	}
	if withMongo {
		cfg.Mongo.Enabled = true
	}
}
