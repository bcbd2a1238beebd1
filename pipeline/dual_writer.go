package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-products/models"
)

// DualWriter keeps the JSON snapshot current after every write and exports
// the collected records to CSV once, on Close.
type DualWriter struct {
	snapshot *SnapshotWriter
	csvPath  string
	schema   *models.Schema
	mu       sync.Mutex
	closed   bool
}

// NewDualWriter creates the snapshot file immediately; the CSV file is only
// created on Close.
func NewDualWriter(csvFilename, jsonFilename, runID string, partition int, schema *models.Schema) (*DualWriter, error) {
	if schema == nil {
		return nil, errors.New("dual writer: schema is required")
	}
	snapshot, err := NewSnapshotWriter(jsonFilename, runID, partition)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot writer: %w", err)
	}

	return &DualWriter{
		snapshot: snapshot,
		csvPath:  csvFilename,
		schema:   schema,
	}, nil
}

// Write persists records to the snapshot.
func (dw *DualWriter) Write(records []*models.Record) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.closed {
		return ErrSinkClosed
	}
	if err := dw.snapshot.Write(records); err != nil {
		return fmt.Errorf("snapshot write failed: %w", err)
	}
	return nil
}

// Close writes the CSV export and releases the snapshot. Calling it twice is
// a no-op.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.closed {
		return nil
	}
	dw.closed = true

	var errs []error
	if err := dw.export(); err != nil {
		errs = append(errs, fmt.Errorf("CSV export failed: %w", err))
	}
	if err := dw.snapshot.Close(); err != nil {
		errs = append(errs, fmt.Errorf("snapshot close failed: %w", err))
	}
	return errors.Join(errs...)
}

func (dw *DualWriter) export() error {
	csvWriter, err := NewCSVWriter(dw.csvPath, dw.schema)
	if err != nil {
		return err
	}
	if err := csvWriter.Write(dw.snapshot.Records()); err != nil {
		csvWriter.Close()
		return err
	}
	return csvWriter.Close()
}

// Validate validates the snapshot file.
func (dw *DualWriter) Validate() error {
	if err := dw.snapshot.Validate(); err != nil {
		return fmt.Errorf("snapshot validation failed: %w", err)
	}
	return nil
}
