// Package store persists records by natural identity. Every backend treats
// Upsert as idempotent: writing the same record twice leaves one entry.
package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
)

// Store is the process-wide upsert target shared by all workers. Implementations
// must be safe for concurrent use.
type Store interface {
	Upsert(ctx context.Context, key string, rec *models.Record) error
	Ping(ctx context.Context) error
	Close() error
}

// mongoDatabase is the database the Mongo backend writes into.
const mongoDatabase = "scraping"

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open builds the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory, "":
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		return NewSQLiteStore(cfg.StoreDSN, cfg.StoreName)
	case config.StorePostgres:
		return OpenPostgres(cfg.StoreDSN, cfg.StoreName)
	case config.StoreRedis:
		return OpenRedis(cfg.StoreDSN, cfg.StoreName)
	case config.StoreMongo:
		return OpenMongo(ctx, cfg.StoreDSN, mongoDatabase, cfg.StoreName)
	case config.StoreKafka:
		return NewKafkaStore(strings.Split(cfg.StoreDSN, ","), cfg.StoreName), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}

func validIdentifier(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

func checkKey(key string, rec *models.Record) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("upsert key cannot be empty")
	}
	if rec == nil {
		return fmt.Errorf("upsert record is nil")
	}
	return nil
}
