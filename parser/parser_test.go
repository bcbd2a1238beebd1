package parser

import (
	"testing"

	"github.com/aluiziolira/go-scrape-products/models"
)

func TestValidateRecord(t *testing.T) {
	schema := models.MustSchema("a", "b", "c")

	tests := []struct {
		name    string
		rec     *models.Record
		wantErr bool
	}{
		{name: "valid record", rec: models.NewRecord(schema, "http://example.test/p/1")},
		{name: "nil record", rec: nil, wantErr: true},
		{name: "missing url", rec: models.NewRecord(schema, " "), wantErr: true},
		{name: "short schema", rec: models.NewRecord(models.MustSchema("a", "b"), "http://example.test/p/2"), wantErr: true},
		{name: "different field", rec: models.NewRecord(models.MustSchema("a", "b", "d"), "http://example.test/p/3"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.rec, schema)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		text    string
		want    int
		wantErr bool
	}{
		{text: "801 290 produits", want: 801290},
		{text: "\n 42 products ", want: 42},
		{text: "0", want: 0},
		{text: "aucun produit", wantErr: true},
		{text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseCount(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCount(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		products, perPage, want int
	}{
		{products: 801290, perPage: 100, want: 8013},
		{products: 100, perPage: 100, want: 1},
		{products: 1, perPage: 100, want: 1},
		{products: 0, perPage: 100, want: 0},
		{products: 10, perPage: 0, want: 0},
	}

	for _, tt := range tests {
		if got := PageCount(tt.products, tt.perPage); got != tt.want {
			t.Fatalf("PageCount(%d, %d) = %d, want %d", tt.products, tt.perPage, got, tt.want)
		}
	}
}

func TestStripLabel(t *testing.T) {
	got := StripLabel("Conditionnement : Plastique, mixed plastic-packet", "Conditionnement :")
	if got != "Plastique, mixed plastic-packet" {
		t.Fatalf("StripLabel = %q", got)
	}
	if got := NormalizeLabel("  Quantité :\n"); got != "Quantité" {
		t.Fatalf("NormalizeLabel = %q", got)
	}
}
