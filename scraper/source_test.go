package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/jarcoal/httpmock"
)

func countPage(marker string) string {
	return `<html><body><p>Il y a <span style="font-weight:bold;">` + marker + `</span> dans la base.</p></body></html>`
}

func TestPageSourceTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		marker   string
		maxPages int
		want     int
	}{
		{name: "spaced digits", marker: "801 290 produits", want: 8013},
		{name: "exact multiple", marker: "200 produits", want: 2},
		{name: "capped", marker: "801 290 produits", maxPages: 10, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MaxPages = tt.maxPages
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", cfg.BaseURL, htmlResponder(countPage(tt.marker)))

			got, err := NewPageSource(testFactory(cfg, transport), cfg, NewMetrics()).TotalPages(context.Background())
			if err != nil {
				t.Fatalf("total pages: %v", err)
			}
			if got != tt.want {
				t.Fatalf("pages=%d, want %d", got, tt.want)
			}
		})
	}
}

func TestPageSourceDiscoveryErrors(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{name: "marker missing", responder: htmlResponder("<html><body>nothing</body></html>")},
		{name: "no digits", responder: htmlResponder(countPage("beaucoup de produits"))},
		{name: "empty catalog", responder: htmlResponder(countPage("0 produit"))},
		{name: "server error", responder: httpmock.NewStringResponder(500, "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", cfg.BaseURL, tt.responder)

			_, err := NewPageSource(testFactory(cfg, transport), cfg, nil).TotalPages(context.Background())
			var discoveryErr DiscoveryError
			if !errors.As(err, &discoveryErr) {
				t.Fatalf("err=%v, want DiscoveryError", err)
			}
		})
	}
}

func TestPageURL(t *testing.T) {
	if got := PageURL("https://fr.openfoodfacts.org/%d", 7); got != "https://fr.openfoodfacts.org/7" {
		t.Fatalf("page url = %q", got)
	}
}

func TestItemListerYieldsAbsoluteLinks(t *testing.T) {
	page := mustPage(t, testHost+"/3", `<html><body>
<a class="list_product_a" href="/produit/1">1</a>
<a class="list_product_a">no href</a>
<a class="other" href="/produit/9">skip</a>
<a class="list_product_a" href="https://other.test/produit/2">2</a>
</body></html>`)

	var got []string
	for locator := range NewItemLister("a.list_product_a").ListItems(page) {
		got = append(got, locator)
	}
	want := []string{testHost + "/produit/1", "https://other.test/produit/2"}
	if len(got) != len(want) {
		t.Fatalf("locators=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("locator %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestItemListerStopsEarly(t *testing.T) {
	page := mustPage(t, testHost+"/1", buildCatalogPage(1, 2, 3))
	n := 0
	for range NewItemLister("a.list_product_a").ListItems(page) {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("iterations=%d, want 1", n)
	}
}
