package circulation

import (
	"fmt"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// HoldCounts maps each book id to the copies it has on hold: one per Active
// loan and one per entry in every pending request. Ids of books that no
// longer exist are counted too; callers ignore them.
func HoldCounts(loans []types.Loan, requests []types.BorrowRequest) map[string]int {
	holds := make(map[string]int)
	for _, loan := range loans {
		if loan.HoldsCopy() {
			holds[loan.BookID]++
		}
	}
	for _, req := range requests {
		for _, id := range req.BookIDs {
			holds[id]++
		}
	}
	return holds
}

// Reconcile recomputes every book's on-hold count from the full Loans and
// BorrowRequests collections, derives availability, persists the Books
// collection and returns it. Running it twice without an intervening
// mutation yields identical output.
func (l *Library) Reconcile() ([]types.Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reconcileLocked()
}

func (l *Library) reconcileLocked() ([]types.Book, error) {
	loans, err := l.store.LoadLoans()
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	requests, err := l.store.LoadRequests()
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	books, err := l.store.LoadBooks()
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	holds := HoldCounts(loans, requests)
	for i := range books {
		b := &books[i]
		b.OnHoldCopies = holds[b.ID]
		b.Available = b.FreeCopies() > 0
		if b.FreeCopies() < 0 {
			l.logger.Warn("holds exceed copies",
				"book", b.ID, "title", b.Title,
				"total", b.TotalCopies, "on_hold", b.OnHoldCopies)
		}
	}

	if err := l.store.SaveBooks(books); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	l.logger.Debug("reconciled", "books", len(books), "loans", len(loans), "requests", len(requests))
	return books, nil
}
