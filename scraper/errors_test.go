package scraper

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/aluiziolira/go-scrape-products/render"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestClassifyNavigationUsesStatus(t *testing.T) {
	err := &render.NavigationError{URL: "http://example.test/1", StatusCode: http.StatusTooManyRequests, Err: errors.New("Too Many Requests")}
	if got := errorTypeLabel(classifyNavigation(err)); got != "rate_limited" {
		t.Fatalf("label = %q, want rate_limited", got)
	}
}

func TestFetchErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	errs := []error{
		DiscoveryError{URL: "u", Err: cause},
		PageFetchError{Page: 2, URL: "u", Attempts: 2, Err: cause},
		ItemFetchError{Page: 2, URL: "u", Attempts: 1, Err: cause},
		SinkWriteError{Partition: 1, URL: "u", Err: cause},
		FieldError{Step: "name", Err: cause},
	}
	for _, err := range errs {
		if !errors.Is(err, cause) {
			t.Fatalf("%T does not unwrap to its cause", err)
		}
	}

	var pageErr PageFetchError
	if !errors.As(errs[1], &pageErr) || pageErr.Page != 2 {
		t.Fatalf("errors.As PageFetchError failed: %+v", pageErr)
	}
}
