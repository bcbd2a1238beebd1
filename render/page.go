package render

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DocumentPage is a Page backed by a parsed goquery document.
type DocumentPage struct {
	url *url.URL
	doc *goquery.Document
}

// NewPage parses body as HTML served from rawURL.
func NewPage(rawURL string, body []byte) (*DocumentPage, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &DocumentPage{url: u, doc: doc}, nil
}

// URL returns the address the page was loaded from.
func (p *DocumentPage) URL() string {
	return p.url.String()
}

// Find runs a CSS selector against the whole document.
func (p *DocumentPage) Find(selector string) []Element {
	return wrap(p.doc.Find(selector))
}

// AbsoluteURL resolves href against the page URL. Unparseable hrefs are
// returned unchanged.
func (p *DocumentPage) AbsoluteURL(href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.url.ResolveReference(ref).String()
}

type element struct {
	sel *goquery.Selection
}

func wrap(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, element{sel: s})
	})
	return out
}

func (e element) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e element) Lines() []string {
	var out []string
	collectLines(e.sel, &out)
	return out
}

func (e element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e element) Find(selector string) []Element {
	return wrap(e.sel.Find(selector))
}

func collectLines(sel *goquery.Selection, out *[]string) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			if text := strings.TrimSpace(child.Text()); text != "" {
				*out = append(*out, text)
			}
			return
		}
		collectLines(child, out)
	})
}
