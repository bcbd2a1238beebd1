package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aluiziolira/go-scrape-products/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ProductDocument is the row layout of the Postgres backend.
type ProductDocument struct {
	Identity  string    `gorm:"column:identity;type:text;primaryKey"`
	URL       string    `gorm:"column:url;type:text;not null"`
	Document  string    `gorm:"column:document;type:jsonb;not null"`
	ScrapedAt time.Time `gorm:"column:scraped_at;type:timestamp with time zone;not null"`
}

// PostgresStore upserts JSONB documents through gorm.
type PostgresStore struct {
	db    *gorm.DB
	table string
}

// OpenPostgres connects to dsn and migrates the table.
func OpenPostgres(dsn, table string) (*PostgresStore, error) {
	if err := validIdentifier(table); err != nil {
		return nil, err
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.Table(table).AutoMigrate(&ProductDocument{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", table, err)
	}
	return NewPostgresStore(db, table), nil
}

// NewPostgresStore wraps an open gorm handle.
func NewPostgresStore(db *gorm.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: table}
}

// Upsert inserts rec or overwrites the row with the same identity.
func (s *PostgresStore) Upsert(ctx context.Context, key string, rec *models.Record) error {
	if err := checkKey(key, rec); err != nil {
		return err
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	row := ProductDocument{
		Identity:  key,
		URL:       rec.URL,
		Document:  string(doc),
		ScrapedAt: rec.ScrapedAt,
	}
	err = s.db.WithContext(ctx).
		Table(s.table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "document", "scraped_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
