// Package backendtest holds the behavior every docstore.Backend must share.
// Backend packages call Run from their own tests.
package backendtest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stacks/internal/docstore"
	"github.com/mesh-intelligence/stacks/pkg/types"
)

// Factory returns a fresh, empty backend. The suite closes it.
type Factory func(t *testing.T) docstore.Backend

// Run exercises the Backend contract against backends built by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Helper()

	t.Run("missing key reads empty", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		records, err := b.Read("books")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("write then read preserves order", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		in := []json.RawMessage{
			json.RawMessage(`{"id":"b2","title":"Second"}`),
			json.RawMessage(`{"id":"b1","title":"First"}`),
			json.RawMessage(`{"id":"b3","title":"Third"}`),
		}
		require.NoError(t, b.Write("books", in))

		out, err := b.Read("books")
		require.NoError(t, err)
		require.Len(t, out, 3)
		for i := range in {
			assert.JSONEq(t, string(in[i]), string(out[i]))
		}
	})

	t.Run("write replaces the whole collection", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		require.NoError(t, b.Write("loans", []json.RawMessage{
			json.RawMessage(`{"id":"l1"}`),
			json.RawMessage(`{"id":"l2"}`),
		}))
		require.NoError(t, b.Write("loans", []json.RawMessage{
			json.RawMessage(`{"id":"l3"}`),
		}))

		out, err := b.Read("loans")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.JSONEq(t, `{"id":"l3"}`, string(out[0]))
	})

	t.Run("empty write clears", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		require.NoError(t, b.Write("memberUser", []json.RawMessage{json.RawMessage(`{"role":"member"}`)}))
		require.NoError(t, b.Write("memberUser", nil))

		out, err := b.Read("memberUser")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("keys are independent", func(t *testing.T) {
		b := newBackend(t)
		defer b.Close()

		require.NoError(t, b.Write("books", []json.RawMessage{json.RawMessage(`{"id":"b1"}`)}))
		require.NoError(t, b.Write("borrowRequests", []json.RawMessage{json.RawMessage(`{"id":"r1"}`)}))

		books, err := b.Read("books")
		require.NoError(t, err)
		requests, err := b.Read("borrowRequests")
		require.NoError(t, err)
		assert.Len(t, books, 1)
		assert.Len(t, requests, 1)
		assert.JSONEq(t, `{"id":"r1"}`, string(requests[0]))
	})

	t.Run("close is idempotent", func(t *testing.T) {
		b := newBackend(t)
		assert.NoError(t, b.Close())
		assert.NoError(t, b.Close())
	})
}

// Corrupter damages the stored document for key in place, the way a torn
// write or a hand edit would.
type Corrupter func(t *testing.T, b docstore.Backend, key string)

// RunCorruption checks that a damaged document is reported as
// types.ErrCorruptDocument rather than read partially, that other keys stay
// readable, and that a full rewrite repairs the key.
func RunCorruption(t *testing.T, newBackend Factory, corrupt Corrupter) {
	t.Helper()

	b := newBackend(t)
	defer b.Close()

	require.NoError(t, b.Write("loans", []json.RawMessage{
		json.RawMessage(`{"id":"l1","bookId":"b1","status":"Active"}`),
		json.RawMessage(`{"id":"l2","bookId":"b2","status":"Active"}`),
	}))
	require.NoError(t, b.Write("books", []json.RawMessage{json.RawMessage(`{"id":"b1"}`)}))
	corrupt(t, b, "loans")

	records, err := b.Read("loans")
	require.ErrorIs(t, err, types.ErrCorruptDocument)
	assert.Empty(t, records, "no partial collection")

	books, err := b.Read("books")
	require.NoError(t, err)
	assert.Len(t, books, 1)

	require.NoError(t, b.Write("loans", []json.RawMessage{json.RawMessage(`{"id":"l3"}`)}))
	records, err = b.Read("loans")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"id":"l3"}`, string(records[0]))
}
