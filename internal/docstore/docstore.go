// Package docstore implements types.Store over any backend that can persist
// an ordered list of JSON records per collection key. Every load decodes the
// whole collection and every save rewrites it.
package docstore

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// Backend persists the records of one collection key as a unit.
//
// Read returns nil and no error for a key that was never written. It returns
// an error wrapping types.ErrCorruptDocument when the stored document cannot
// be parsed. Write replaces the whole collection; a nil or empty slice leaves
// the collection empty.
type Backend interface {
	Read(key string) ([]json.RawMessage, error)
	Write(key string, records []json.RawMessage) error
	Close() error
}

// Compile-time contract assertion.
var _ types.Store = (*Store)(nil)

// Store adapts a Backend to types.Store.
type Store struct {
	mu      sync.Mutex
	backend Backend
	closed  bool
}

// New returns a Store over backend. The Store owns the backend and closes it
// on Close.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) read(key string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	return s.backend.Read(key)
}

func (s *Store) write(key string, records []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	return s.backend.Write(key, records)
}

// load decodes every record under key into a T. A record that fails to
// decode makes the whole collection corrupt.
func load[T any](s *Store, key string) ([]T, error) {
	records, err := s.read(key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	items := make([]T, 0, len(records))
	for i, rec := range records {
		var item T
		if err := json.Unmarshal(rec, &item); err != nil {
			return nil, fmt.Errorf("%w: %s record %d: %v", types.ErrCorruptDocument, key, i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// save encodes items and replaces the collection under key.
func save[T any](s *Store, key string, items []T) error {
	records := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding %s record: %w", key, err)
		}
		records = append(records, data)
	}
	if err := s.write(key, records); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// LoadBooks returns the Books collection.
func (s *Store) LoadBooks() ([]types.Book, error) {
	return load[types.Book](s, types.CollectionBooks)
}

// SaveBooks replaces the Books collection.
func (s *Store) SaveBooks(books []types.Book) error {
	return save(s, types.CollectionBooks, books)
}

// LoadLoans returns the Loans collection.
func (s *Store) LoadLoans() ([]types.Loan, error) {
	return load[types.Loan](s, types.CollectionLoans)
}

// SaveLoans replaces the Loans collection.
func (s *Store) SaveLoans(loans []types.Loan) error {
	return save(s, types.CollectionLoans, loans)
}

// LoadRequests returns the BorrowRequests collection.
func (s *Store) LoadRequests() ([]types.BorrowRequest, error) {
	return load[types.BorrowRequest](s, types.CollectionRequests)
}

// SaveRequests replaces the BorrowRequests collection.
func (s *Store) SaveRequests(requests []types.BorrowRequest) error {
	return save(s, types.CollectionRequests, requests)
}

// LoadUsers returns the Users collection.
func (s *Store) LoadUsers() ([]types.User, error) {
	return load[types.User](s, types.CollectionUsers)
}

// SaveUsers replaces the Users collection.
func (s *Store) SaveUsers(users []types.User) error {
	return save(s, types.CollectionUsers, users)
}

// LoadSession returns the session marker for role, or ErrNoSession.
func (s *Store) LoadSession(role types.Role) (types.Session, error) {
	key, err := types.SessionCollection(role)
	if err != nil {
		return types.Session{}, err
	}
	sessions, err := load[types.Session](s, key)
	if err != nil {
		return types.Session{}, err
	}
	if len(sessions) == 0 {
		return types.Session{}, types.ErrNoSession
	}
	return sessions[0], nil
}

// SaveSession writes the session marker for session.Role, replacing any
// previous one.
func (s *Store) SaveSession(session types.Session) error {
	key, err := types.SessionCollection(session.Role)
	if err != nil {
		return err
	}
	return save(s, key, []types.Session{session})
}

// ClearSession removes the session marker for role.
func (s *Store) ClearSession(role types.Role) error {
	key, err := types.SessionCollection(role)
	if err != nil {
		return err
	}
	return s.write(key, nil)
}

// Close closes the backend. Subsequent calls return nil; other methods
// return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}

