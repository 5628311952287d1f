// Package sqlite implements a document backend on an embedded SQLite
// database. Each collection is one row in the documents table whose payload
// is the JSON array of its records.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// Backend stores collections in <dataDir>/stacks.db.
type Backend struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewBackend opens (creating if needed) the database in dataDir and ensures
// the documents table exists.
func NewBackend(dataDir string) (*Backend, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dataDir, err)
	}
	path := filepath.Join(dataDir, FileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection; writes are serialized.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createDocuments); err != nil {
		db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Backend{db: db, path: path}, nil
}

// Path returns the database file path.
func (b *Backend) Path() string { return b.path }

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

	var payload []byte
	err := b.db.QueryRow(selectDocument, key).Scan(&payload)
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

// Write upserts the collection under key as one JSON array.
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
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := b.db.Exec(upsertDocument, key, payload, now); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Close closes the database. Close is idempotent.
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
