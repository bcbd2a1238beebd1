package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/parser"
	"github.com/aluiziolira/go-scrape-products/render"
)

// PageURL builds the catalog page locator for a 1-based page id.
func PageURL(template string, page int) string {
	return fmt.Sprintf(template, page)
}

// PageSource discovers how many catalog pages the site currently exposes.
type PageSource struct {
	sessions render.Factory
	cfg      *config.Config
	metrics  *Metrics
}

// NewPageSource creates a page source that reads the count marker from the
// configured entry page.
func NewPageSource(sessions render.Factory, cfg *config.Config, metrics *Metrics) *PageSource {
	return &PageSource{sessions: sessions, cfg: cfg, metrics: metrics}
}

// TotalPages fetches the entry page once and derives the page count from
// the advertised product count. The result is capped by MaxPages.
func (s *PageSource) TotalPages(ctx context.Context) (int, error) {
	session, err := s.sessions.Acquire(ctx)
	if err != nil {
		return 0, DiscoveryError{URL: s.cfg.BaseURL, Err: err}
	}
	defer session.Close()

	start := time.Now()
	s.metrics.IncRequest(phaseDiscovery)
	page, err := session.Navigate(ctx, s.cfg.BaseURL)
	s.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		s.metrics.IncError(errorTypeLabel(classifyNavigation(err)))
		return 0, DiscoveryError{URL: s.cfg.BaseURL, Err: err}
	}

	markers := page.Find(s.cfg.CountSelector)
	if len(markers) == 0 {
		return 0, DiscoveryError{
			URL: s.cfg.BaseURL,
			Err: fmt.Errorf("count marker %q not found", s.cfg.CountSelector),
		}
	}

	products, err := parser.ParseCount(markers[0].Text())
	if err != nil {
		return 0, DiscoveryError{URL: s.cfg.BaseURL, Err: err}
	}

	pages := parser.PageCount(products, s.cfg.ItemsPerPage)
	if pages < 1 {
		return 0, DiscoveryError{URL: s.cfg.BaseURL, Err: errors.New("catalog is empty")}
	}
	if s.cfg.MaxPages > 0 && pages > s.cfg.MaxPages {
		slog.Info("capping page count",
			slog.Int("discovered", pages),
			slog.Int("max_pages", s.cfg.MaxPages),
		)
		pages = s.cfg.MaxPages
	}

	slog.Info("discovered catalog",
		slog.Int("products", products),
		slog.Int("pages", pages),
	)
	return pages, nil
}
