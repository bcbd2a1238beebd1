package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aluiziolira/go-scrape-products/render"
)

// ErrNoPartitions is returned by Run when no worker could be started.
var ErrNoPartitions = errors.New("scraper: no partition could be scheduled")

// DiscoveryError means the catalog page count could not be determined. It is
// fatal to the run.
type DiscoveryError struct {
	URL string
	Err error
}

func (e DiscoveryError) Error() string {
	return fmt.Sprintf("discovery %s: %v", e.URL, e.Err)
}

func (e DiscoveryError) Unwrap() error {
	return e.Err
}

// PageFetchError means a catalog page stayed unreachable after all retries.
type PageFetchError struct {
	Page     int
	URL      string
	Attempts int
	Err      error
}

func (e PageFetchError) Error() string {
	return fmt.Sprintf("page %d (%s) after %d attempts: %v", e.Page, e.URL, e.Attempts, e.Err)
}

func (e PageFetchError) Unwrap() error {
	return e.Err
}

// ItemFetchError means an item detail page could not be loaded at all.
type ItemFetchError struct {
	Page     int
	URL      string
	Attempts int
	Err      error
}

func (e ItemFetchError) Error() string {
	return fmt.Sprintf("item %s on page %d after %d attempts: %v", e.URL, e.Page, e.Attempts, e.Err)
}

func (e ItemFetchError) Unwrap() error {
	return e.Err
}

// FieldError is a failed extraction step. It is logged and counted, never
// returned: the step's fields keep the sentinel value.
type FieldError struct {
	Step string
	Err  error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// SinkWriteError means a record could not be persisted. It aborts the
// partition that produced it.
type SinkWriteError struct {
	Partition int
	URL       string
	Err       error
}

func (e SinkWriteError) Error() string {
	return fmt.Sprintf("partition %d: persist %s: %v", e.Partition, e.URL, e.Err)
}

func (e SinkWriteError) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrForbidden indicates a forbidden response (HTTP 403).
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string {
	return fmt.Errorf("forbidden: %w", e.Err).Error()
}

func (e ErrForbidden) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a missing resource (HTTP 404).
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return fmt.Errorf("not_found: %w", e.Err).Error()
}

func (e ErrNotFound) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the target rate-limited the request.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var forbidden ErrForbidden
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	return "other"
}

// classifyNavigation maps a session error to a transport category.
func classifyNavigation(err error) error {
	statusCode := 0
	var navErr *render.NavigationError
	if errors.As(err, &navErr) {
		statusCode = navErr.StatusCode
	}
	return classifyError(err, statusCode)
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
