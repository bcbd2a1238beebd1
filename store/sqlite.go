package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aluiziolira/go-scrape-products/models"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps one JSON document per identity in a SQLite table.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath, table string) (*SQLiteStore, error) {
	if err := validIdentifier(table); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serialises writers; a single connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, table: table}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		identity TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		document TEXT NOT NULL,
		scraped_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert inserts rec or replaces the row already stored under key.
func (s *SQLiteStore) Upsert(ctx context.Context, key string, rec *models.Record) error {
	if err := checkKey(key, rec); err != nil {
		return err
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `INSERT INTO ` + s.table + ` (identity, url, document, scraped_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET url = excluded.url, document = excluded.document, scraped_at = excluded.scraped_at`
	if _, err := s.db.ExecContext(ctx, query, key, rec.URL, string(doc), rec.ScrapedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", key, err)
	}
	return nil
}

// Get loads the record stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*models.Record, bool, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM `+s.table+` WHERE identity = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query record: %w", err)
	}
	var rec models.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, false, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, true, nil
}

// Count returns the number of stored identities.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+s.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
