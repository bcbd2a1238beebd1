// Package pipeline is the per-partition write path: every record is
// validated, kept in a durable snapshot and upserted into the shared store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/parser"
	"github.com/aluiziolira/go-scrape-products/store"
)

var (
	// ErrSinkClosed is returned when Write is called after Close.
	ErrSinkClosed = errors.New("pipeline: sink closed")
	// ErrUnknownIdentityField is returned when the upsert key names a field
	// the schema does not declare.
	ErrUnknownIdentityField = errors.New("pipeline: identity field not in schema")
)

// Paths returns the snapshot and CSV export locations of a partition within
// one run. Artifacts of earlier runs of the same partition are left alone.
func Paths(cfg *config.Config, runID string, partition int) (jsonPath, csvPath string) {
	base := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s#%d-%s", cfg.FilePrefix, partition, runID))
	return base + ".json", base + ".csv"
}

// PartitionSink is the result sink owned by one worker.
type PartitionSink struct {
	partition int
	schema    *models.Schema
	identity  string
	output    OutputWriter
	store     store.Store

	metrics metrics

	mu     sync.Mutex
	closed bool
}

// NewPartitionSink opens the output files of a partition and wires them to
// the shared store. st may be nil to skip upserts.
func NewPartitionSink(cfg *config.Config, runID string, partition models.Partition, schema *models.Schema, st store.Store) (*PartitionSink, error) {
	if !schema.Has(cfg.IdentityField) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentityField, cfg.IdentityField)
	}
	jsonPath, csvPath := Paths(cfg, runID, partition.Index)
	output, err := NewDualWriter(csvPath, jsonPath, runID, partition.Index, schema)
	if err != nil {
		return nil, fmt.Errorf("partition %d: %w", partition.Index, err)
	}
	return NewSink(partition.Index, schema, cfg.IdentityField, output, st), nil
}

// NewSink builds a sink over an arbitrary output writer.
func NewSink(partition int, schema *models.Schema, identityField string, output OutputWriter, st store.Store) *PartitionSink {
	return &PartitionSink{
		partition: partition,
		schema:    schema,
		identity:  identityField,
		output:    output,
		store:     st,
		metrics:   newMetrics(),
	}
}

// Write validates rec, appends it to the durable snapshot and upserts it
// under its natural identity. The record is durable once Write returns nil.
func (s *PartitionSink) Write(ctx context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	if err := parser.ValidateRecord(rec, s.schema); err != nil {
		s.metrics.addValidation("invalid_record")
		return fmt.Errorf("validate record: %w", err)
	}

	if err := s.output.Write([]*models.Record{rec}); err != nil {
		s.metrics.addValidation("snapshot_error")
		return err
	}

	if s.store != nil {
		key := rec.Identity(s.identity)
		if err := s.store.Upsert(ctx, key, rec); err != nil {
			s.metrics.addValidation("upsert_error")
			return fmt.Errorf("upsert %s: %w", key, err)
		}
	}

	s.metrics.incrementProcessed()
	return nil
}

// Close flushes the end-of-partition export. The shared store stays open.
func (s *PartitionSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	m := s.metrics.snapshot()
	slog.Info("partition sink closed",
		slog.Int("partition", s.partition),
		slog.Any("processed_records", m["processed_records"]),
		slog.Any("write_errors", m["write_errors"]),
	)
	return s.output.Close()
}

// GetMetrics returns a snapshot of the internal counters.
func (s *PartitionSink) GetMetrics() map[string]interface{} {
	return s.metrics.snapshot()
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_records": m.processed,
		"write_errors":      copyValidation,
	}
}
