package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/render"
)

const testHost = "http://example.test"

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

// flakyResponder fails the first n calls with status, then serves body.
func flakyResponder(n, status int, body string) httpmock.Responder {
	var mu sync.Mutex
	calls := 0
	return func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		current := calls
		mu.Unlock()
		if current <= n {
			return httpmock.NewStringResponse(status, "unavailable"), nil
		}
		resp := httpmock.NewStringResponse(200, body)
		resp.Header.Set("Content-Type", "text/html")
		return resp, nil
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = testHost + "/"
	cfg.PageURLTemplate = testHost + "/%d"
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = 2 * time.Millisecond
	cfg.Timeout = 5 * time.Second
	return cfg
}

func testFactory(cfg *config.Config, transport *httpmock.MockTransport) render.Factory {
	return render.NewCollyFactory(cfg, render.WithTransport(transport))
}

func productURL(id int) string {
	return fmt.Sprintf("%s/produit/%d", testHost, id)
}

func buildCatalogPage(ids ...int) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for _, id := range ids {
		fmt.Fprintf(&b, `<li><a class="list_product_a" href="/produit/%d">Product %d</a></li>`, id, id)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func buildProductPage(id int) string {
	return fmt.Sprintf(`<html><body>
<h1 itemprop="name">Product %d</h1>
<p>Code-barres : <span property="food:code">%013d</span></p>
</body></html>`, id, id)
}

// registerCatalog serves pages 1..pages, each listing perPage products with
// ids (page-1)*perPage+1 upward.
func registerCatalog(transport *httpmock.MockTransport, pages, perPage int) {
	for page := 1; page <= pages; page++ {
		ids := make([]int, 0, perPage)
		for i := 1; i <= perPage; i++ {
			id := (page-1)*perPage + i
			ids = append(ids, id)
			transport.RegisterResponder("GET", productURL(id), htmlResponder(buildProductPage(id)))
		}
		transport.RegisterResponder("GET", fmt.Sprintf("%s/%d", testHost, page), htmlResponder(buildCatalogPage(ids...)))
	}
}

func testExtractor(t *testing.T) *FieldExtractor {
	t.Helper()
	e, err := NewFieldExtractor(models.ProductSchema(), ProductSteps(), NewMetrics())
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return e
}

// collectingSink keeps records in memory and can fail on demand.
type collectingSink struct {
	mu      sync.Mutex
	records []*models.Record
	failAt  int
	closed  bool
}

func (s *collectingSink) Write(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt > 0 && len(s.records)+1 == s.failAt {
		return errors.New("disk full")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *collectingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *collectingSink) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.URL)
	}
	return out
}

func (s *collectingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// sinkSet hands out one collectingSink per partition.
type sinkSet struct {
	mu     sync.Mutex
	sinks  map[int]*collectingSink
	failAt map[int]int
}

func newSinkSet() *sinkSet {
	return &sinkSet{sinks: make(map[int]*collectingSink), failAt: make(map[int]int)}
}

func (s *sinkSet) factory(_ string, p models.Partition) (Sink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sink := &collectingSink{failAt: s.failAt[p.Index]}
	s.sinks[p.Index] = sink
	return sink, nil
}

func (s *sinkSet) get(index int) *collectingSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sinks[index]
}

func (s *sinkSet) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sink := range s.sinks {
		n += len(sink.URLs())
	}
	return n
}

// stubSession serves canned pages and counts navigations.
type stubSession struct {
	pages   map[string]string
	visits  []string
	closed  bool
	onVisit func(url string)
}

func (s *stubSession) Navigate(ctx context.Context, url string) (render.Page, error) {
	if s.closed {
		return nil, render.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.visits = append(s.visits, url)
	if s.onVisit != nil {
		s.onVisit(url)
	}
	body, ok := s.pages[url]
	if !ok {
		return nil, &render.NavigationError{URL: url, StatusCode: http.StatusNotFound, Err: errors.New("Not Found")}
	}
	page, err := render.NewPage(url, []byte(body))
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}
