package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	yaml := "workers: 6\npage_retries: 3\nstore_backend: sqlite\nstore_dsn: file.db\nretry_backoff: 50ms\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SCRAPER_WORKERS", "8")
	t.Setenv("SCRAPER_PAGE_RETRIES", "2")

	cfg, err := loadConfig([]string{"-config", path, "-retries", "0", "-partitions", "1,3"}, io.Discard)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Workers != 8 {
		t.Fatalf("workers=%d, want env value 8", cfg.Workers)
	}
	if cfg.PageRetries != 0 {
		t.Fatalf("retries=%d, want flag value 0", cfg.PageRetries)
	}
	if cfg.StoreBackend != "sqlite" || cfg.StoreDSN != "file.db" {
		t.Fatalf("store=%s/%s, want yaml values", cfg.StoreBackend, cfg.StoreDSN)
	}
	if cfg.RetryBackoff != 50*time.Millisecond {
		t.Fatalf("retry backoff=%v, want 50ms", cfg.RetryBackoff)
	}
	if len(cfg.Partitions) != 2 || cfg.Partitions[0] != 1 || cfg.Partitions[1] != 3 {
		t.Fatalf("partitions=%v, want [1 3]", cfg.Partitions)
	}
	if cfg.IdentityField != "barcode" {
		t.Fatalf("identity field=%q, want default", cfg.IdentityField)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "missing file", args: []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}},
		{name: "bad partitions", args: []string{"-partitions", "1,x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(tt.args, io.Discard); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestFormatCounts(t *testing.T) {
	got := formatCounts(map[string]int{"timeout": 2, "not_found": 1})
	if got != "not_found=1 timeout=2" {
		t.Fatalf("formatCounts = %q", got)
	}
}
