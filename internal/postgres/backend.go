// Package postgres implements a document backend on a Postgres database.
// Each collection is one row in the documents table with a JSONB payload.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/mesh-intelligence/stacks/pkg/types"
)

const (
	driverName = "pgx"
	// queryTimeout bounds every statement.
	queryTimeout = 10 * time.Second
)

const (
	createDocuments = `CREATE TABLE IF NOT EXISTS documents (
	key TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectDocument = `SELECT payload FROM documents WHERE key = $1`
	upsertDocument = `INSERT INTO documents (key, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Backend stores collections in a Postgres database.
type Backend struct {
	mu sync.Mutex
	db *sql.DB
}

// NewBackend connects to dsn, verifies the connection and ensures the
// documents table exists.
func NewBackend(dsn string) (*Backend, error) {
	if dsn == "" {
		return nil, types.ErrDSNRequired
	}
	openMu.Lock()
	db, err := sqlOpen(driverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createDocuments); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure documents table: %w", err)
	}
	return &Backend{db: db}, nil
}

// DB exposes the underlying sql.DB for tests.
func (b *Backend) DB() *sql.DB { return b.db }

// Read returns the records stored under key. A payload that is not a JSON
// array yields types.ErrCorruptDocument.
func (b *Backend) Read(key string) ([]json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil, types.ErrStoreClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var payload []byte
	err := b.db.QueryRowContext(ctx, selectDocument, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrCorruptDocument, key, err)
	}
	return records, nil
}

// Write upserts the collection under key as one JSONB array.
func (b *Backend) Write(key string, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return types.ErrStoreClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if _, err := b.db.ExecContext(ctx, upsertDocument, key, string(payload)); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Close closes the connection pool. Close is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// OverrideSQLOpen swaps the sql.Open function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}
