package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"birthday_reminder_bot/internal/domain/birthday"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// It also pings the database to ensure connectivity.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// PostgresStore persists the birthday document as a single jsonb row, written
// in full on every mutation. The document layout mirrors the file store's.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS birthday_state (
//	    id         INT PRIMARY KEY,
//	    doc        JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const stateRowID = 1

func (s *PostgresStore) Load(ctx context.Context) (*birthday.Document, error) {
	var raw []byte
	query := `SELECT doc FROM birthday_state WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, stateRowID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return birthday.NewDocument(), nil
		}
		return nil, fmt.Errorf("%w: loading state row: %v", ErrStoreIO, err)
	}
	doc := &birthday.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("%w: decoding state row: %v", ErrStoreIO, err)
	}
	doc.EnsureInit()
	return doc, nil
}

func (s *PostgresStore) Save(ctx context.Context, doc *birthday.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encoding document: %v", ErrStoreIO, err)
	}
	query := `INSERT INTO birthday_state (id, doc, updated_at)
               VALUES ($1, $2, NOW())
               ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, stateRowID, raw); err != nil {
		return fmt.Errorf("%w: writing state row: %v", ErrStoreIO, err)
	}
	return nil
}
