package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString returns the trimmed value of key and whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvDuration parses key as a Go duration ("500ms", "2s").
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

// EnvIntList parses a comma-separated list of integers such as "0,2".
func EnvIntList(key string) ([]int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return nil, false, nil
	}
	out, err := ParseIntList(value)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", key, err)
	}
	return out, true, nil
}

// ParseIntList parses a comma-separated list of integers. Blank input yields nil.
func ParseIntList(value string) ([]int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// ApplyEnv overlays SCRAPER_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	if v, ok := EnvString("SCRAPER_BASE_URL"); ok {
		c.BaseURL = v
	}
	if v, ok := EnvString("SCRAPER_PAGE_URL_TEMPLATE"); ok {
		c.PageURLTemplate = v
	}
	if v, ok, err := EnvInt("SCRAPER_PAGES"); err != nil {
		return err
	} else if ok {
		c.MaxPages = v
	}
	if v, ok, err := EnvInt("SCRAPER_WORKERS"); err != nil {
		return err
	} else if ok {
		c.Workers = v
	}
	if v, ok, err := EnvInt("SCRAPER_ITEMS_PER_PAGE"); err != nil {
		return err
	} else if ok {
		c.ItemsPerPage = v
	}
	if v, ok, err := EnvInt("SCRAPER_PAGE_RETRIES"); err != nil {
		return err
	} else if ok {
		c.PageRetries = v
	}
	if v, ok, err := EnvDuration("SCRAPER_TIMEOUT"); err != nil {
		return err
	} else if ok {
		c.Timeout = v
	}
	if v, ok := EnvString("SCRAPER_IDENTITY_FIELD"); ok {
		c.IdentityField = v
	}
	if v, ok := EnvString("SCRAPER_OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := EnvString("SCRAPER_STORE"); ok {
		c.StoreBackend = strings.ToLower(v)
	}
	if v, ok := EnvString("SCRAPER_STORE_DSN"); ok {
		c.StoreDSN = v
	}
	if v, ok := EnvString("SCRAPER_STORE_NAME"); ok {
		c.StoreName = v
	}
	if v, ok, err := EnvIntList("SCRAPER_PARTITIONS"); err != nil {
		return err
	} else if ok {
		c.Partitions = v
	}
	if v, ok := EnvString("SCRAPER_METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	return nil
}
