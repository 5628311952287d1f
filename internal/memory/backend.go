// Package memory implements an in-process document backend. Nothing
// survives the process; it backs tests and the "memory" backend setting.
package memory

import (
	"encoding/json"
	"sync"
)

// Backend keeps each collection as a slice of records in a map.
type Backend struct {
	mu   sync.RWMutex
	docs map[string][]json.RawMessage
}

// NewBackend returns an empty backend.
func NewBackend() *Backend {
	return &Backend{docs: make(map[string][]json.RawMessage)}
}

// Read returns a copy of the records stored under key.
func (b *Backend) Read(key string) ([]json.RawMessage, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneRecords(b.docs[key]), nil
}

// Write replaces the records stored under key with a copy of records.
func (b *Backend) Write(key string, records []json.RawMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(records) == 0 {
		delete(b.docs, key)
		return nil
	}
	b.docs[key] = cloneRecords(records)
	return nil
}

// Close is a no-op.
func (b *Backend) Close() error { return nil }

// Put stores a raw document under key, bypassing record framing. Tests use
// it to plant corrupt records.
func (b *Backend) Put(key string, records ...string) {
	raw := make([]json.RawMessage, len(records))
	for i, r := range records {
		raw[i] = json.RawMessage(r)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[key] = raw
}

func cloneRecords(records []json.RawMessage) []json.RawMessage {
	if len(records) == 0 {
		return nil
	}
	out := make([]json.RawMessage, len(records))
	for i, rec := range records {
		out[i] = append(json.RawMessage(nil), rec...)
	}
	return out
}
