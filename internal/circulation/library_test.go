package circulation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stacks/internal/docstore"
	"github.com/mesh-intelligence/stacks/internal/memory"
	"github.com/mesh-intelligence/stacks/pkg/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(days int) { c.t = c.t.AddDate(0, 0, days) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type fixture struct {
	lib     *Library
	store   *docstore.Store
	backend *memory.Backend
	clock   *fakeClock
}

// newFixture returns a Library over an in-memory store holding books, with
// the clock at 2024-01-01.
func newFixture(t *testing.T, books ...types.Book) *fixture {
	t.Helper()
	backend := memory.NewBackend()
	store := docstore.New(backend)
	t.Cleanup(func() { _ = store.Close() })
	if len(books) > 0 {
		require.NoError(t, store.SaveBooks(books))
	}
	clock := &fakeClock{t: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)}
	lib := New(store, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	return &fixture{lib: lib, store: store, backend: backend, clock: clock}
}

func testBook(id, genre string, total int) types.Book {
	return types.Book{
		ID:          id,
		Title:       "Title " + id,
		Author:      "Author " + id,
		ISBN:        "1591846447",
		Year:        2011,
		Genre:       genre,
		TotalCopies: total,
	}
}

func date(y int, m time.Month, d int) types.Date {
	return types.Date{Year: y, Month: m, Day: d}
}

func bookByID(t *testing.T, books []types.Book, id string) types.Book {
	t.Helper()
	i, ok := findBook(books, id)
	require.True(t, ok, "book %s not found", id)
	return books[i]
}

// assertConsistent checks the stored books against a count of Active loans
// and pending request entries.
func assertConsistent(t *testing.T, s types.Store) {
	t.Helper()
	books, err := s.LoadBooks()
	require.NoError(t, err)
	loans, err := s.LoadLoans()
	require.NoError(t, err)
	requests, err := s.LoadRequests()
	require.NoError(t, err)

	want := map[string]int{}
	for _, l := range loans {
		if l.Status == types.LoanActive {
			want[l.BookID]++
		}
	}
	for _, r := range requests {
		for _, id := range r.BookIDs {
			want[id]++
		}
	}
	for _, b := range books {
		assert.Equal(t, want[b.ID], b.OnHoldCopies, "holds for %s", b.ID)
		assert.GreaterOrEqual(t, b.FreeCopies(), 0, "free copies for %s", b.ID)
		assert.Equal(t, b.FreeCopies() > 0, b.Available, "available flag for %s", b.ID)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestToday(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, date(2024, time.January, 1), f.lib.Today())
	f.clock.advance(31)
	assert.Equal(t, date(2024, time.February, 1), f.lib.Today())
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 1))
	_, _, err := f.lib.CreateLoan("b1", "Alice", types.Date{})
	require.NoError(t, err)

	snap, err := f.lib.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Books, 1)
	assert.Len(t, snap.Loans, 1)
	assert.Empty(t, snap.Requests)
}
