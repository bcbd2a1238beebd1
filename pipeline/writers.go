package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-products/models"
)

// OutputWriter defines the interface for partition output files.
type OutputWriter interface {
	Write(records []*models.Record) error
	Close() error
	Validate() error
}

// Snapshot is the on-disk form of a partition's durable artifact.
type Snapshot struct {
	RunID     string           `json:"run_id"`
	Partition int              `json:"partition"`
	UpdatedAt time.Time        `json:"updated_at"`
	Records   []*models.Record `json:"records"`
}

// SnapshotWriter keeps every record of a partition and rewrites the whole
// snapshot file after each write. The file is replaced atomically, so after
// write N it holds exactly the first N records.
type SnapshotWriter struct {
	path     string
	snapshot Snapshot
	mu       sync.Mutex
}

// NewSnapshotWriter creates the snapshot file with no records.
func NewSnapshotWriter(filename, runID string, partition int) (*SnapshotWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	sw := &SnapshotWriter{
		path: filename,
		snapshot: Snapshot{
			RunID:     runID,
			Partition: partition,
			Records:   []*models.Record{},
		},
	}
	if err := sw.persist(); err != nil {
		return nil, err
	}
	return sw, nil
}

// Write appends records and persists the snapshot. On failure the in-memory
// list is rolled back so it keeps matching the file.
func (sw *SnapshotWriter) Write(records []*models.Record) error {
	if len(records) == 0 {
		return nil
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	prev := len(sw.snapshot.Records)
	sw.snapshot.Records = append(sw.snapshot.Records, records...)
	if err := sw.persist(); err != nil {
		clear(sw.snapshot.Records[prev:])
		sw.snapshot.Records = sw.snapshot.Records[:prev]
		return err
	}
	return nil
}

// Records returns a copy of the records written so far.
func (sw *SnapshotWriter) Records() []*models.Record {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	out := make([]*models.Record, len(sw.snapshot.Records))
	copy(out, sw.snapshot.Records)
	return out
}

// Close is a no-op: every successful Write already left the file complete.
func (sw *SnapshotWriter) Close() error {
	return nil
}

// Validate ensures the snapshot file exists and has content.
func (sw *SnapshotWriter) Validate() error {
	info, err := os.Stat(sw.path)
	if err != nil {
		return fmt.Errorf("stat snapshot file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("snapshot file is empty")
	}
	return nil
}

func (sw *SnapshotWriter) persist() error {
	sw.snapshot.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sw.snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeFileAtomic(sw.path, data)
}

// ReadSnapshot loads a snapshot written by SnapshotWriter.
func ReadSnapshot(filename string) (*Snapshot, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filename, err)
	}
	return &snapshot, nil
}

// writeFileAtomic writes data to a temp file in the target directory, syncs
// it and renames it over filename.
func writeFileAtomic(filename string, data []byte) (err error) {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("replace %s: %w", filename, err)
	}
	return nil
}

// CSVWriter writes records to CSV, one column per schema field plus url.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	schema *models.Schema
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string, schema *models.Schema) (*CSVWriter, error) {
	if schema == nil {
		return nil, errors.New("csv writer: schema is required")
	}
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	header := append(schema.Fields(), "url")
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
		schema: schema,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter) Write(records []*models.Record) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, rec := range records {
		row := make([]string, 0, cw.schema.Len()+1)
		for _, name := range cw.schema.Fields() {
			value, ok := rec.Get(name)
			if !ok {
				value = models.UnknownValue
			}
			row = append(row, value)
		}
		row = append(row, rec.URL)
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
