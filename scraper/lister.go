package scraper

import (
	"iter"
	"strings"

	"github.com/aluiziolira/go-scrape-products/render"
)

// ItemLister enumerates item links on a rendered catalog page.
type ItemLister struct {
	selector string
}

// NewItemLister creates a lister matching item anchors with selector.
func NewItemLister(selector string) *ItemLister {
	return &ItemLister{selector: selector}
}

// ListItems yields absolute item locators in document order. Anchors without
// an href are skipped.
func (l *ItemLister) ListItems(page render.Page) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, anchor := range page.Find(l.selector) {
			href, ok := anchor.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				continue
			}
			if !yield(page.AbsoluteURL(strings.TrimSpace(href))) {
				return
			}
		}
	}
}
