package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aluiziolira/go-scrape-products/models"
)

// ValidateRecord ensures a record carries every declared field of schema.
func ValidateRecord(rec *models.Record, schema *models.Schema) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if strings.TrimSpace(rec.URL) == "" {
		return fmt.Errorf("record missing url")
	}
	got := rec.Schema()
	if got == nil {
		return fmt.Errorf("record for %s has no schema", rec.URL)
	}
	if got.Len() != schema.Len() {
		return fmt.Errorf("record for %s has %d fields, want %d", rec.URL, got.Len(), schema.Len())
	}
	for _, name := range schema.Fields() {
		if _, ok := rec.Get(name); !ok {
			return fmt.Errorf("record for %s missing field %q", rec.URL, name)
		}
	}
	return nil
}

// NormalizeText collapses runs of whitespace into single spaces.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeLabel strips the trailing colon the catalog prints after labels.
func NormalizeLabel(label string) string {
	label = NormalizeText(label)
	label = strings.TrimSuffix(label, ":")
	return strings.TrimSpace(label)
}

// StripLabel removes a leading label (and its colon) from a "Label : value" text.
func StripLabel(text, label string) string {
	text = NormalizeText(text)
	label = NormalizeText(label)
	if label != "" {
		text = strings.TrimPrefix(text, label)
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, ":")
	return strings.TrimSpace(text)
}

// ParseCount keeps only the digits of a count marker such as "801 290 produits".
func ParseCount(text string) (int, error) {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("no digits in count text %q", text)
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", text, err)
	}
	return n, nil
}

// PageCount converts a product count into the number of catalog pages.
func PageCount(products, perPage int) int {
	if products <= 0 || perPage <= 0 {
		return 0
	}
	return (products + perPage - 1) / perPage
}
