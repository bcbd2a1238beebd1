package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/pipeline"
	"github.com/aluiziolira/go-scrape-products/render"
	"github.com/aluiziolira/go-scrape-products/scraper"
	"github.com/aluiziolira/go-scrape-products/store"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := loadConfig(args, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		return 2
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current items")
	}()

	metrics := scraper.NewMetrics()
	metricsServer := startMetricsServer(cfg.MetricsAddr, metrics)
	defer stopMetricsServer(metricsServer)

	st, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("store unavailable", slog.String("backend", cfg.StoreBackend), slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("close store", slog.Any("error", err))
		}
	}()

	sessions := render.NewCollyFactory(cfg)

	totalPages, err := scraper.NewPageSource(sessions, cfg, metrics).TotalPages(ctx)
	if err != nil {
		slog.Error("page discovery failed", slog.Any("error", err))
		return 1
	}

	schema := models.ProductSchema()
	if !schema.Has(cfg.IdentityField) {
		slog.Error("invalid identity field",
			slog.String("identity_field", cfg.IdentityField),
			slog.Any("fields", schema.Fields()),
		)
		return 1
	}
	extractor, err := scraper.NewFieldExtractor(schema, scraper.ProductSteps(), metrics)
	if err != nil {
		slog.Error("initialising extractor", slog.Any("error", err))
		return 1
	}

	sinks := func(runID string, p models.Partition) (scraper.Sink, error) {
		return pipeline.NewPartitionSink(cfg, runID, p, schema, st)
	}
	coordinator, err := scraper.NewCoordinator(cfg, sessions, extractor, sinks, metrics)
	if err != nil {
		slog.Error("initialising coordinator", slog.Any("error", err))
		return 1
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("pages", totalPages),
		slog.Int("workers", cfg.Workers),
		slog.String("store", cfg.StoreBackend),
	)

	result, err := coordinator.Run(ctx, totalPages, cfg.Workers)
	if result != nil {
		printSummary(result, cfg)
	}
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		return 1
	}
	if !result.OK() {
		slog.Error("no partition completed")
		return 1
	}
	return 0
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := st.Ping(pingCtx); err != nil {
		st.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	slog.Info("store ready", slog.String("backend", cfg.StoreBackend), slog.String("name", cfg.StoreName))
	return st, nil
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func stopMetricsServer(server *http.Server) {
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

func printSummary(result *models.RunResult, cfg *config.Config) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Printf("Scrape complete (run %s)\n", result.RunID)

	for _, s := range result.Summaries {
		jsonPath, csvPath := pipeline.Paths(cfg, result.RunID, s.Partition.Index)
		fmt.Printf("\n  Partition %d (pages %d-%d): %s\n", s.Partition.Index, s.Partition.First, s.Partition.Last, s.Status)
		fmt.Printf("    Succeeded:     %d\n", s.Succeeded)
		fmt.Printf("    Failed:        %d (pages %d, items %d)\n", s.Failed, s.PagesFailed, s.ItemsFailed)
		fmt.Printf("    Duplicates:    %d\n", s.Duplicates)
		fmt.Printf("    Retries:       %d\n", s.Retries)
		fmt.Printf("    Duration:      %v\n", s.Duration().Round(time.Millisecond))
		if len(s.FailedPages) > 0 {
			fmt.Printf("    Failed pages:  %v\n", s.FailedPages)
		}
		for _, url := range s.FailedItems {
			fmt.Printf("    Failed item:   %s\n", url)
		}
		if len(s.ErrorsByType) > 0 {
			fmt.Printf("    Error types:   %s\n", formatCounts(s.ErrorsByType))
		}
		if s.Err != "" {
			fmt.Printf("    Error:         %s\n", s.Err)
		}
		fmt.Printf("    Snapshot:      %s\n", jsonPath)
		fmt.Printf("    Export:        %s\n", csvPath)
	}

	duration := result.EndTime.Sub(result.StartTime)
	itemsPerSec := 0.0
	if duration.Seconds() > 0 {
		itemsPerSec = float64(result.Succeeded()) / duration.Seconds()
	}
	fmt.Printf("\n  Partitions:    %d completed of %d\n", result.Completed(), len(result.Summaries))
	fmt.Printf("  Total items:   %d\n", result.Succeeded())
	fmt.Printf("  Failures:      %d\n", result.Failed())
	fmt.Printf("  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Printf("  Items/sec:     %.2f\n", itemsPerSec)
	fmt.Println(separator)
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return out
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
