// Package jsonl implements a document backend that keeps one JSON Lines file
// per collection in a data directory. Files are rewritten atomically on every
// save.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// Extension is appended to a collection key to form its file name.
const Extension = ".jsonl"

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrInvalidKey is returned for a collection key that cannot be used as a
// file name.
var ErrInvalidKey = errors.New("invalid collection key")

// Backend stores each collection as <dir>/<key>.jsonl.
type Backend struct {
	mu  sync.Mutex
	dir string
}

// NewBackend returns a backend rooted at dir, creating the directory if it
// does not exist.
func NewBackend(dir string) (*Backend, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}
	return &Backend{dir: dir}, nil
}

// Dir returns the data directory.
func (b *Backend) Dir() string { return b.dir }

func (b *Backend) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(b.dir, key+Extension), nil
}

// Read returns the records in <key>.jsonl. A missing file reads as empty.
// A line that is not valid JSON makes the whole collection corrupt.
func (b *Backend) Read(key string) ([]json.RawMessage, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := readJSONL(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	var bad malformedLineError
	if errors.As(err, &bad) {
		return nil, fmt.Errorf("%w: %s line %d", types.ErrCorruptDocument, key, bad.line)
	}
	return records, err
}

// Write atomically replaces <key>.jsonl with records, one per line.
func (b *Backend) Write(key string, records []json.RawMessage) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return writeJSONL(path, records)
}

// Close is a no-op; every Write is already durable.
func (b *Backend) Close() error { return nil }

// malformedLineError reports the 1-based number of a line that is not JSON.
type malformedLineError struct{ line int }

func (e malformedLineError) Error() string {
	return fmt.Sprintf("line %d is not valid JSON", e.line)
}

// readJSONL reads a JSONL file and returns each non-empty line as a
// json.RawMessage. Blank lines are ignored; the first malformed line stops
// the read with a malformedLineError.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, malformedLineError{line: n}
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL writes records to path using the temp-file, fsync, rename
// pattern so readers never observe a partial file.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
