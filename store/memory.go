package store

import (
	"context"
	"sync"

	"github.com/aluiziolira/go-scrape-products/models"
)

// MemoryStore keeps records in a map. It is the default backend for dry runs
// and the reference implementation in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.Record)}
}

// Upsert stores rec under key, replacing any previous record.
func (s *MemoryStore) Upsert(ctx context.Context, key string, rec *models.Record) error {
	if err := checkKey(key, rec); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.records[key] = rec
	s.mu.Unlock()
	return nil
}

// Get returns the record stored under key.
func (s *MemoryStore) Get(key string) (*models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// Len returns the number of distinct keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
