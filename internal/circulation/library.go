// Package circulation implements availability accounting for the library:
// the hold-count reconciler, the loan lifecycle, the borrow-request workflow
// and the catalog operations that feed them.
//
// Every mutating operation follows the same sequence under one mutex: load
// the whole collections it touches, modify, save them whole, then run a full
// reconciliation pass and return the resulting Snapshot.
package circulation

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/stacks/internal/logging"
	"github.com/mesh-intelligence/stacks/pkg/types"
)

// Library runs circulation operations against a Store.
type Library struct {
	mu     sync.Mutex
	store  types.Store
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Library.
type Option func(*Library)

// WithClock sets the source of "today".
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// WithIDGenerator sets the generator for loan, request and book ids.
func WithIDGenerator(newID func() string) Option {
	return func(l *Library) { l.newID = newID }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger logging.Logger) Option {
	return func(l *Library) { l.logger = logger }
}

// New returns a Library over store.
func New(store types.Store, opts ...Option) *Library {
	l := &Library{
		store:  store,
		logger: logging.Noop(),
		now:    time.Now,
		newID:  NewID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewID generates a UUID v7, falling back to v4 if v7 generation fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Today returns the current calendar date according to the Library clock.
func (l *Library) Today() types.Date {
	return types.DateOf(l.now())
}

// Snapshot returns the current state of all three collections. Books are
// returned as stored, without reconciling.
func (l *Library) Snapshot() (types.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	books, err := l.store.LoadBooks()
	if err != nil {
		return types.Snapshot{}, err
	}
	return l.snapshotLocked(books)
}

// snapshotLocked pairs already reconciled books with the current loans and
// requests.
func (l *Library) snapshotLocked(books []types.Book) (types.Snapshot, error) {
	loans, err := l.store.LoadLoans()
	if err != nil {
		return types.Snapshot{}, err
	}
	requests, err := l.store.LoadRequests()
	if err != nil {
		return types.Snapshot{}, err
	}
	return types.Snapshot{Books: books, Loans: loans, Requests: requests}, nil
}

// finishLocked reconciles and builds the Snapshot returned by every mutating
// operation.
func (l *Library) finishLocked(op string) (types.Snapshot, error) {
	books, err := l.reconcileLocked()
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	snap, err := l.snapshotLocked(books)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return snap, nil
}

func findBook(books []types.Book, id string) (int, bool) {
	i := slices.IndexFunc(books, func(b types.Book) bool { return b.ID == id })
	return i, i >= 0
}

func findLoan(loans []types.Loan, id string) (int, bool) {
	i := slices.IndexFunc(loans, func(l types.Loan) bool { return l.ID == id })
	return i, i >= 0
}

func findRequest(requests []types.BorrowRequest, id string) (int, bool) {
	i := slices.IndexFunc(requests, func(r types.BorrowRequest) bool { return r.ID == id })
	return i, i >= 0
}

// byGenre orders books by genre, case-insensitively, keeping the stored
// order within a genre.
func byGenre(a, b types.Book) int {
	return strings.Compare(strings.ToLower(a.Genre), strings.ToLower(b.Genre))
}
