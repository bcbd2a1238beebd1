package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/aluiziolira/go-scrape-products/config"
)

// loadConfig resolves configuration with precedence
// defaults < YAML file < SCRAPER_* env < flags set on the command line.
func loadConfig(args []string, stderr io.Writer) (*config.Config, error) {
	defaults := config.DefaultConfig()

	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML configuration file")
	baseURL := fs.String("base-url", defaults.BaseURL, "Catalog entry page (product count is read from it)")
	pageTemplate := fs.String("page-url", defaults.PageURLTemplate, "Catalog page URL template, %d is the page number")
	maxPages := fs.Int("pages", defaults.MaxPages, "Maximum catalog pages to scrape (0 = all discovered)")
	workers := fs.Int("workers", defaults.Workers, "Number of concurrent workers")
	itemsPerPage := fs.Int("items-per-page", defaults.ItemsPerPage, "Products listed per catalog page")
	retries := fs.Int("retries", defaults.PageRetries, "Retry attempts per page or item")
	retryBackoff := fs.Duration("retry-backoff", defaults.RetryBackoff, "Initial retry backoff")
	retryBackoffMax := fs.Duration("retry-backoff-max", defaults.RetryBackoffMax, "Maximum retry backoff")
	timeout := fs.Duration("timeout", defaults.Timeout, "Navigation timeout")
	respectRobots := fs.Bool("respect-robots", defaults.RespectRobotsTxt, "Respect robots.txt directives")
	identityField := fs.String("identity-field", defaults.IdentityField, "Record field used as upsert key")
	outputDir := fs.String("output-dir", defaults.OutputDir, "Directory for snapshots and CSV exports")
	prefix := fs.String("prefix", defaults.FilePrefix, "Output file name prefix")
	storeBackend := fs.String("store", defaults.StoreBackend, "Upsert store: memory, sqlite, postgres, redis, mongo or kafka")
	storeDSN := fs.String("store-dsn", defaults.StoreDSN, "Store connection string (path, URL or comma-separated brokers)")
	storeName := fs.String("store-name", defaults.StoreName, "Table, collection, topic or key prefix")
	partitions := fs.String("partitions", "", "Comma-separated partition indices to run (resume)")
	metricsAddr := fs.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := fs.Bool("v", defaults.Verbose, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = *baseURL
		case "page-url":
			cfg.PageURLTemplate = *pageTemplate
		case "pages":
			cfg.MaxPages = *maxPages
		case "workers":
			cfg.Workers = *workers
		case "items-per-page":
			cfg.ItemsPerPage = *itemsPerPage
		case "retries":
			cfg.PageRetries = *retries
		case "retry-backoff":
			cfg.RetryBackoff = *retryBackoff
		case "retry-backoff-max":
			cfg.RetryBackoffMax = *retryBackoffMax
		case "timeout":
			cfg.Timeout = *timeout
		case "respect-robots":
			cfg.RespectRobotsTxt = *respectRobots
		case "identity-field":
			cfg.IdentityField = *identityField
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "prefix":
			cfg.FilePrefix = *prefix
		case "store":
			cfg.StoreBackend = strings.ToLower(*storeBackend)
		case "store-dsn":
			cfg.StoreDSN = *storeDSN
		case "store-name":
			cfg.StoreName = *storeName
		case "partitions":
			list, err := config.ParseIntList(*partitions)
			if err != nil {
				flagErr = fmt.Errorf("-partitions: %w", err)
				return
			}
			cfg.Partitions = list
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "v":
			cfg.Verbose = *verbose
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}
	return cfg, nil
}
