package jsonl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stacks/internal/docstore"
	"github.com/mesh-intelligence/stacks/internal/docstore/backendtest"
	"github.com/mesh-intelligence/stacks/pkg/types"
)

func newTestBackend(t *testing.T) docstore.Backend {
	b, err := NewBackend(t.TempDir())
	require.NoError(t, err)
	return b
}

func TestBackendContract(t *testing.T) {
	backendtest.Run(t, newTestBackend)
}

func TestBackendCorruption(t *testing.T) {
	backendtest.RunCorruption(t, newTestBackend, func(t *testing.T, b docstore.Backend, key string) {
		path := filepath.Join(b.(*Backend).Dir(), key+Extension)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		// Drop the tail of the last record.
		require.NoError(t, os.WriteFile(path, data[:len(data)-5], 0o644))
	})
}

func TestNewBackendCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	b, err := NewBackend(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, b.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteOneRecordPerLine(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBackend(dir)
	require.NoError(t, err)

	require.NoError(t, b.Write("loans", []json.RawMessage{
		json.RawMessage(`{"id":"l1"}`),
		json.RawMessage(`{"id":"l2"}`),
	}))

	data, err := os.ReadFile(filepath.Join(dir, "loans.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":\"l1\"}\n{\"id\":\"l2\"}\n", string(data))
}

func TestReadRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		`{"id":"b1"}`,
		``,
		`{"id": broken`,
		`{"id":"b2"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.jsonl"), []byte(content), 0o644))

	b, err := NewBackend(dir)
	require.NoError(t, err)

	records, err := b.Read("books")
	require.ErrorIs(t, err, types.ErrCorruptDocument)
	assert.Contains(t, err.Error(), "books line 3")
	assert.Nil(t, records)
}

func TestReadIgnoresBlankLines(t *testing.T) {
	dir := t.TempDir()
	content := "{\"id\":\"b1\"}\n\n   \n{\"id\":\"b2\"}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.jsonl"), []byte(content), 0o644))

	b, err := NewBackend(dir)
	require.NoError(t, err)

	records, err := b.Read("books")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"id":"b2"}`, string(records[1]))
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBackend(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Write("books", []json.RawMessage{json.RawMessage(`{"id":"b1"}`)}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "books.jsonl", entries[0].Name())
}

func TestInvalidKey(t *testing.T) {
	b, err := NewBackend(t.TempDir())
	require.NoError(t, err)

	_, err = b.Read("../escape")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, b.Write("a/b", nil), ErrInvalidKey)
}
