package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Store backends accepted by StoreBackend.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMongo    = "mongo"
	StoreKafka    = "kafka"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	PageURLTemplate  string        `yaml:"page_url_template"` // %d is replaced by the page number
	CountSelector    string        `yaml:"count_selector"`
	ItemSelector     string        `yaml:"item_selector"`
	ItemsPerPage     int           `yaml:"items_per_page"`
	MaxPages         int           `yaml:"max_pages"` // 0 scrapes every discovered page
	Workers          int           `yaml:"workers"`
	PageRetries      int           `yaml:"page_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax  time.Duration `yaml:"retry_backoff_max"`
	Timeout          time.Duration `yaml:"timeout"`
	UserAgent        string        `yaml:"user_agent"`
	RespectRobotsTxt bool          `yaml:"respect_robots_txt"`
	IdentityField    string        `yaml:"identity_field"`
	OutputDir        string        `yaml:"output_dir"`
	FilePrefix       string        `yaml:"file_prefix"`
	StoreBackend     string        `yaml:"store_backend"`
	StoreDSN         string        `yaml:"store_dsn"`
	StoreName        string        `yaml:"store_name"` // table, collection, topic or key prefix
	DedupeMaxSize    int           `yaml:"dedupe_max_size"`
	Partitions       []int         `yaml:"partitions"` // empty runs every partition
	MetricsAddr      string        `yaml:"metrics_addr"`
	Verbose          bool          `yaml:"verbose"`
}

// DefaultConfig returns conservative defaults for the public food catalog.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://fr.openfoodfacts.org/",
		PageURLTemplate:  "https://fr.openfoodfacts.org/%d",
		CountSelector:    `span[style="font-weight:bold;"]`,
		ItemSelector:     "a.list_product_a",
		ItemsPerPage:     100,
		MaxPages:         0,
		Workers:          4,
		PageRetries:      1,
		RetryBackoff:     200 * time.Millisecond,
		RetryBackoffMax:  2 * time.Second,
		Timeout:          20 * time.Second,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobotsTxt: false,
		IdentityField:    "barcode",
		OutputDir:        "output",
		FilePrefix:       "open_food_data",
		StoreBackend:     StoreMemory,
		StoreName:        "products",
		DedupeMaxSize:    10000,
		Verbose:          false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if !strings.Contains(c.PageURLTemplate, "%d") {
		return fmt.Errorf("page URL template must contain %%d")
	}
	if c.CountSelector == "" {
		return fmt.Errorf("count selector cannot be empty")
	}
	if c.ItemSelector == "" {
		return fmt.Errorf("item selector cannot be empty")
	}
	if c.ItemsPerPage <= 0 {
		return fmt.Errorf("items per page must be positive")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.PageRetries < 0 {
		return fmt.Errorf("page retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if strings.TrimSpace(c.IdentityField) == "" {
		return fmt.Errorf("identity field cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.FilePrefix == "" {
		return fmt.Errorf("file prefix cannot be empty")
	}
	switch c.StoreBackend {
	case StoreMemory:
	case StoreSQLite, StorePostgres, StoreRedis, StoreMongo, StoreKafka:
		if c.StoreDSN == "" {
			return fmt.Errorf("store dsn is required for the %s backend", c.StoreBackend)
		}
	default:
		return fmt.Errorf("store backend must be one of memory, sqlite, postgres, redis, mongo or kafka")
	}
	if c.StoreName == "" {
		return fmt.Errorf("store name cannot be empty")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe max size cannot be negative")
	}
	for _, idx := range c.Partitions {
		if idx < 0 || idx >= c.Workers {
			return fmt.Errorf("partition index %d out of range [0, %d)", idx, c.Workers)
		}
	}

	return nil
}

// RunsPartition reports whether the partition index is selected for this run.
func (c *Config) RunsPartition(index int) bool {
	if len(c.Partitions) == 0 {
		return true
	}
	for _, idx := range c.Partitions {
		if idx == index {
			return true
		}
	}
	return false
}
