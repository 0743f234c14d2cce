package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsgrid/internal/config"
	"newsgrid/internal/dedupe"
	"newsgrid/internal/feed"
	"newsgrid/internal/images"
	"newsgrid/internal/logger"
	"newsgrid/internal/metrics"
	"newsgrid/internal/pipeline"
	"newsgrid/internal/storage"
)

var (
	flagLimit      int
	flagPersist    bool
	flagNoOgImages bool
	flagSources    string
	flagStore      string
)

var rootCmd = &cobra.Command{
	Use:   "newsgrid",
	Short: "RSS/Atom news ingestion pipeline",
	Long: `newsgrid fetches the configured news feeds, classifies and filters
their items, resolves article images and upserts the results into the
article store.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch all sources and emit (or persist) the article batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context(), pipeline.Options{
			CategoriesOnly: false,
			FetchImages:    !flagNoOgImages,
			Persist:        flagPersist,
			Limit:          flagLimit,
		})
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Fetch all sources and emit the distinct display categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context(), pipeline.Options{
			CategoriesOnly: true,
		})
	},
}

func init() {
	runCmd.Flags().IntVar(&flagLimit, "limit", 0, "cap on articles per run (0 = configured default)")
	runCmd.Flags().BoolVar(&flagPersist, "persist", false, "deduplicate and upsert into the article store")
	runCmd.Flags().BoolVar(&flagNoOgImages, "no-og-images", false, "disable the live-page og:image fallback")

	rootCmd.PersistentFlags().StringVar(&flagSources, "sources", "", "path to the sources YAML file")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "store backend: file or postgres")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runPipeline(ctx context.Context, opts pipeline.Options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagSources != "" {
		cfg.SourcesConfigPath = flagSources
	}
	if flagStore != "" {
		cfg.StoreBackend = flagStore
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	sources, err := config.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	var deduper *dedupe.Deduplicator
	if opts.Persist {
		store, err := openStore(cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		deduper = dedupe.New(store)
	}

	resolver := images.NewResolver(images.Options{
		Timeout:      cfg.OgImageTimeout,
		Retries:      cfg.OgImageRetries,
		RetryDelay:   cfg.FetchRetryDelay,
		HostInterval: cfg.OgHostInterval,
		CacheTTL:     cfg.OgCacheTTL,
	})
	fetcher := feed.NewFetcher(cfg, resolver)

	result, err := pipeline.New(cfg, fetcher, deduper).Run(ctx, sources, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if result.Stats != nil {
		return enc.Encode(map[string]any{
			"articles": result.Articles,
			"stats":    result.Stats,
		})
	}
	return enc.Encode(result.Articles)
}

func openStore(cfg *config.Config) (dedupe.Store, error) {
	if cfg.StoreBackend == "postgres" {
		return storage.NewPostgresStore(cfg.DatabaseURL)
	}
	return storage.NewFileStore(cfg.FileStorePath)
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}

func main() {
	logger.Init()

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
