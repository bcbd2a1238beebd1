// Package render is the page rendering layer: a session navigates to a URL
// and exposes the resulting document for selector queries.
package render

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when Navigate is called after Close.
var ErrSessionClosed = errors.New("render: session closed")

// Element is one node matched by a selector.
type Element interface {
	// Text returns the trimmed text content of the node and its descendants.
	Text() string
	// Lines returns each non-blank text node below the element, in document order.
	Lines() []string
	Attr(name string) (string, bool)
	Find(selector string) []Element
}

// Page is a rendered document.
type Page interface {
	URL() string
	Find(selector string) []Element
	// AbsoluteURL resolves href against the page URL.
	AbsoluteURL(href string) string
}

// Session navigates and renders pages. A session is owned by a single
// goroutine and must be closed by its owner.
type Session interface {
	Navigate(ctx context.Context, url string) (Page, error)
	Close() error
}

// Factory acquires new sessions.
type Factory interface {
	Acquire(ctx context.Context) (Session, error)
}

// NavigationError reports a page that could not be loaded.
type NavigationError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NavigationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("navigate %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}
