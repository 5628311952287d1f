package circulation

import (
	"fmt"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// builtInBook describes a catalog entry installed on first startup.
type builtInBook struct {
	id     string
	title  string
	author string
	isbn   string
	year   int
	genre  string
	copies int
}

// builtInCatalog keeps the fixed ids the catalog has always shipped with so
// documents written by earlier installs still line up.
var builtInCatalog = []builtInBook{
	{"2f91c00b-ac17-4a6b-b39b-a687551740a2", "The Silkworm", "Robert Galbraith", "0316351989", 2015, "Crime Fiction", 1},
	{"9054a529-29f5-400a-9e1c-3ef31ddb347c", "Atomic Habit", "James Clear", "0735211299", 2018, "Self Help", 10},
	{"956d071c-3218-4c60-9f9c-17d20665568c", "Start with Why", "Simon Sinek", "1591846447", 2011, "Self Help", 3},
	{"4f7597e0-f880-4ce9-8261-94b90944a272", "The Little Prince", "Antoine de Saint-Exupéry", "0156012197", 2000, "Classic Literature", 5},
	{"6f101ca6-f9f3-4c1a-a8a4-ececa8d4f905", "Cat's Cradle", "Kurt Vonnegut", "038533348X", 1998, "Classic Literature", 4},
	{"077d9739-0a0c-4858-98af-a3bab448d658", "The Great Gatsby", "F. Scott Fitzgerald", "8745274824", 1925, "Classic Literature", 10},
	{"4b9bc9e4-56a4-409e-a793-5b288a1d6f58", "1984", "George Orwell", "9780451524935", 1961, "Classic Literature", 3},
	{"68f4acff-c176-48e2-9ab6-c9d43c67cf5f", "The Power of Now", "Eckhart Tolle", "1577314808", 2004, "Self Help", 2},
	{"3fdd011a-8b1a-4d32-a288-8b756cd57aa1", "To Kill a Mockingbird", "Harper Lee", "0062420704", 1960, "Classic Literature", 6},
}

// SeedBooks returns a fresh copy of the built-in catalog. The entries bypass
// form validation: one carries a 13-digit ISBN.
func SeedBooks() []types.Book {
	books := make([]types.Book, 0, len(builtInCatalog))
	for _, bb := range builtInCatalog {
		books = append(books, types.Book{
			ID:          bb.id,
			Title:       bb.title,
			Author:      bb.author,
			ISBN:        bb.isbn,
			Year:        bb.year,
			Genre:       bb.genre,
			TotalCopies: bb.copies,
			Available:   bb.copies > 0,
		})
	}
	return books
}

// SeedCatalog installs the built-in catalog when the Books collection is
// empty and reports whether it did. Existing data is never touched.
func (l *Library) SeedCatalog() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.store.LoadBooks()
	if err != nil {
		return false, fmt.Errorf("seed catalog: %w", err)
	}
	if len(books) > 0 {
		return false, nil
	}
	if err := l.store.SaveBooks(SeedBooks()); err != nil {
		return false, fmt.Errorf("seed catalog: %w", err)
	}
	if _, err := l.reconcileLocked(); err != nil {
		return false, fmt.Errorf("seed catalog: %w", err)
	}
	l.logger.Info("catalog seeded", "books", len(builtInCatalog))
	return true, nil
}
