package render

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/gocolly/colly/v2"
)

// Option customises a CollyFactory.
type Option func(*CollyFactory)

// WithTransport replaces the HTTP transport of every acquired session.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *CollyFactory) {
		f.transport = rt
	}
}

// CollyFactory hands out sessions backed by their own colly collector.
type CollyFactory struct {
	cfg       *config.Config
	transport http.RoundTripper
}

// NewCollyFactory builds a session factory configured from cfg.
func NewCollyFactory(cfg *config.Config, opts ...Option) *CollyFactory {
	f := &CollyFactory{cfg: cfg}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Acquire creates a synchronous collector dedicated to one caller.
func (f *CollyFactory) Acquire(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := colly.NewCollector(
		colly.UserAgent(f.cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobotsTxt

	transport := f.transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   f.cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}
	collector.WithTransport(transport)

	s := &CollySession{collector: collector, transport: transport}
	collector.OnResponse(func(r *colly.Response) {
		s.last = r
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			s.status = r.StatusCode
		}
	})
	return s, nil
}

// CollySession is a Session over a synchronous colly collector. Visit blocks
// until callbacks ran, so the last response can be read without locking.
type CollySession struct {
	collector *colly.Collector
	transport http.RoundTripper

	last   *colly.Response
	status int
	closed bool
}

// Navigate loads url and parses the response body.
func (s *CollySession) Navigate(ctx context.Context, url string) (Page, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.last = nil
	s.status = 0
	if err := s.collector.Visit(url); err != nil {
		return nil, &NavigationError{URL: url, StatusCode: s.status, Err: err}
	}
	if s.last == nil {
		return nil, &NavigationError{URL: url, Err: errors.New("no response received")}
	}

	page, err := NewPage(s.last.Request.URL.String(), s.last.Body)
	if err != nil {
		return nil, &NavigationError{URL: url, StatusCode: s.last.StatusCode, Err: err}
	}
	return page, nil
}

// Close releases idle connections. Further navigation fails.
func (s *CollySession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if t, ok := s.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
	return nil
}
