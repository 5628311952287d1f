package circulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

func TestSeedCatalog(t *testing.T) {
	f := newFixture(t)

	seeded, err := f.lib.SeedCatalog()
	require.NoError(t, err)
	assert.True(t, seeded)

	books := f.lib.Books()
	require.Len(t, books, 9)
	silkworm := bookByID(t, books, "2f91c00b-ac17-4a6b-b39b-a687551740a2")
	assert.Equal(t, "The Silkworm", silkworm.Title)
	assert.Equal(t, 1, silkworm.TotalCopies)
	assert.True(t, silkworm.Available)
	assertConsistent(t, f.store)
}

func TestSeedCatalogIsNoOpOnExistingData(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 1))

	seeded, err := f.lib.SeedCatalog()
	require.NoError(t, err)
	assert.False(t, seeded)

	books := f.lib.Books()
	require.Len(t, books, 1)
	assert.Equal(t, "b1", books[0].ID)
}

func TestSeedCatalogTwice(t *testing.T) {
	f := newFixture(t)
	_, err := f.lib.SeedCatalog()
	require.NoError(t, err)
	seeded, err := f.lib.SeedCatalog()
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Len(t, f.lib.Books(), 9)
}

func TestSeedBooksAreFreshCopies(t *testing.T) {
	a := SeedBooks()
	a[0].Title = "changed"
	b := SeedBooks()
	assert.Equal(t, "The Silkworm", b[0].Title)
}

func TestSeedCatalogCorrupt(t *testing.T) {
	f := newFixture(t)
	f.backend.Put(types.CollectionBooks, `{`)

	_, err := f.lib.SeedCatalog()
	assert.ErrorIs(t, err, types.ErrCorruptDocument)
}
