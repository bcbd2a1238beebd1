package scraper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/render"
)

// Step extracts a group of related fields from an item page. Run returns
// values keyed by field name; fields it does not return keep the sentinel.
type Step struct {
	Name   string
	Fields []string
	Run    func(page render.Page) (map[string]string, error)
}

// FieldExtractor runs a fixed sequence of steps against an item page and
// builds a complete record. A failing step never fails the record.
type FieldExtractor struct {
	schema  *models.Schema
	steps   []Step
	metrics *Metrics
}

// NewFieldExtractor checks that every step only declares schema fields.
func NewFieldExtractor(schema *models.Schema, steps []Step, metrics *Metrics) (*FieldExtractor, error) {
	if schema == nil {
		return nil, fmt.Errorf("extractor: schema is required")
	}
	for _, step := range steps {
		if step.Run == nil {
			return nil, fmt.Errorf("extractor: step %q has no run function", step.Name)
		}
		for _, name := range step.Fields {
			if !schema.Has(name) {
				return nil, fmt.Errorf("extractor: step %q declares unknown field %q", step.Name, name)
			}
		}
	}
	return &FieldExtractor{schema: schema, steps: steps, metrics: metrics}, nil
}

// Schema returns the schema records are built against.
func (e *FieldExtractor) Schema() *models.Schema {
	return e.schema
}

// Extract builds the record for the item at locator. Every schema field is
// present in the result; unextractable fields hold models.UnknownValue.
func (e *FieldExtractor) Extract(locator string, page render.Page) *models.Record {
	rec := models.NewRecord(e.schema, locator)
	start := time.Now()

	for _, step := range e.steps {
		stepStart := time.Now()
		values, err := runStep(step, page)
		if err != nil {
			slog.Debug("extraction step failed",
				slog.String("url", locator),
				slog.Any("error", FieldError{Step: step.Name, Err: err}),
			)
			continue
		}
		for _, name := range step.Fields {
			if value, ok := values[name]; ok {
				rec.Set(name, value)
			}
		}
		slog.Debug("extraction step done",
			slog.String("url", locator),
			slog.String("step", step.Name),
			slog.Duration("took", time.Since(stepStart)),
		)
	}

	missing := rec.Missing()
	e.metrics.AddMissing(missing)
	slog.Debug("extracted item",
		slog.String("url", locator),
		slog.Int("missing", len(missing)),
		slog.Duration("took", time.Since(start)),
	)
	return rec
}

// runStep converts a panicking step into an error.
func runStep(step Step, page render.Page) (values map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			values = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step.Run(page)
}
