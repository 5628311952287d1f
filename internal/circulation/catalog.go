package circulation

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// AddBook validates and appends a new book with a generated id. Any
// caller-supplied hold count is ignored.
func (l *Library) AddBook(book types.Book) (types.Book, types.Snapshot, error) {
	book.Normalize()
	if err := book.Validate(l.Today()); err != nil {
		return types.Book{}, types.Snapshot{}, fmt.Errorf("add book: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.store.LoadBooks()
	if err != nil {
		return types.Book{}, types.Snapshot{}, fmt.Errorf("add book: %w", err)
	}
	book.ID = l.newID()
	book.OnHoldCopies = 0
	book.Available = book.FreeCopies() > 0
	books = append(books, book)
	if err := l.store.SaveBooks(books); err != nil {
		return types.Book{}, types.Snapshot{}, fmt.Errorf("add book: %w", err)
	}
	l.logger.Info("book added", "book", book.ID, "title", book.Title)

	snap, err := l.finishLocked("add book")
	if err != nil {
		return types.Book{}, types.Snapshot{}, err
	}
	if i, ok := findBook(snap.Books, book.ID); ok {
		book = snap.Books[i]
	}
	return book, snap, nil
}

// UpdateBook replaces the user-authored fields of the book with the same id.
// TotalCopies may not drop below the copies currently on hold.
func (l *Library) UpdateBook(book types.Book) (types.Book, types.Snapshot, error) {
	book.Normalize()
	if err := book.Validate(l.Today()); err != nil {
		return types.Book{}, types.Snapshot{}, fmt.Errorf("update book: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.reconcileLocked()
	if err != nil {
		return types.Book{}, types.Snapshot{}, fmt.Errorf("update book: %w", err)
	}
	i, ok := findBook(books, book.ID)
	if !ok {
		return types.Book{}, types.Snapshot{}, fmt.Errorf("update book: %w: %s", types.ErrBookNotFound, book.ID)
	}
	if holds := books[i].OnHoldCopies; book.TotalCopies < holds {
		return types.Book{}, types.Snapshot{}, fmt.Errorf("update book: %w: %d copies are on hold, total %d is too low",
			types.ErrInvalidCopies, holds, book.TotalCopies)
	}
	book.OnHoldCopies = books[i].OnHoldCopies
	book.Available = book.FreeCopies() > 0
	books[i] = book
	if err := l.store.SaveBooks(books); err != nil {
		return types.Book{}, types.Snapshot{}, fmt.Errorf("update book: %w", err)
	}
	l.logger.Info("book updated", "book", book.ID, "title", book.Title)

	snap, err := l.finishLocked("update book")
	return book, snap, err
}

// DeleteBook removes a book. Loans that reference it keep the dangling id
// and display as UnknownBookTitle.
func (l *Library) DeleteBook(id string) (types.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.store.LoadBooks()
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("delete book: %w", err)
	}
	i, ok := findBook(books, id)
	if !ok {
		return types.Snapshot{}, fmt.Errorf("delete book: %w: %s", types.ErrBookNotFound, id)
	}
	books = slices.Delete(books, i, i+1)
	if err := l.store.SaveBooks(books); err != nil {
		return types.Snapshot{}, fmt.Errorf("delete book: %w", err)
	}
	l.logger.Info("book deleted", "book", id)

	return l.finishLocked("delete book")
}

// Book returns the stored book with the given id.
func (l *Library) Book(id string) (types.Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.store.LoadBooks()
	if err != nil {
		return types.Book{}, err
	}
	i, ok := findBook(books, id)
	if !ok {
		return types.Book{}, fmt.Errorf("%w: %s", types.ErrBookNotFound, id)
	}
	return books[i], nil
}

// Books returns every book ordered by genre. Storage errors are logged and
// yield an empty list.
func (l *Library) Books() []types.Book {
	return l.SearchBooks("")
}

// SearchBooks returns the books whose title, author, genre or ISBN contains
// term, case-insensitively, ordered by genre.
func (l *Library) SearchBooks(term string) []types.Book {
	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.store.LoadBooks()
	if err != nil {
		l.logger.Error("loading books", "err", err)
		return []types.Book{}
	}
	matched := slices.DeleteFunc(books, func(b types.Book) bool { return !b.Matches(term) })
	slices.SortStableFunc(matched, byGenre)
	return matched
}

// AvailableBooks reconciles and returns the books with at least one free
// copy, ordered by genre.
func (l *Library) AvailableBooks() []types.Book {
	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.reconcileLocked()
	if err != nil {
		l.logger.Error("loading available books", "err", err)
		return []types.Book{}
	}
	free := slices.DeleteFunc(books, func(b types.Book) bool { return b.FreeCopies() < 1 })
	slices.SortStableFunc(free, byGenre)
	return free
}
