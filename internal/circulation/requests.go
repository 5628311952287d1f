package circulation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// SubmitRequest records a pending borrow request from memberName for the
// given books. The selection is validated first (member name, empty, size,
// duplicates), then every book is checked against freshly reconciled state.
// If any book is missing or has no free copy the whole request is rejected.
func (l *Library) SubmitRequest(memberName string, bookIDs []string) (types.BorrowRequest, types.Snapshot, error) {
	if err := types.ValidateSelection(memberName, bookIDs); err != nil {
		return types.BorrowRequest{}, types.Snapshot{}, fmt.Errorf("submit request: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.reconcileLocked()
	if err != nil {
		return types.BorrowRequest{}, types.Snapshot{}, fmt.Errorf("submit request: %w", err)
	}
	for _, id := range bookIDs {
		if err := requireFreeCopy(books, id); err != nil {
			return types.BorrowRequest{}, types.Snapshot{}, fmt.Errorf("submit request: %w", err)
		}
	}

	requests, err := l.store.LoadRequests()
	if err != nil {
		return types.BorrowRequest{}, types.Snapshot{}, fmt.Errorf("submit request: %w", err)
	}
	req := types.BorrowRequest{
		ID:          l.newID(),
		MemberName:  strings.TrimSpace(memberName),
		BookIDs:     slices.Clone(bookIDs),
		RequestDate: l.Today(),
	}
	requests = append(requests, req)
	if err := l.store.SaveRequests(requests); err != nil {
		return types.BorrowRequest{}, types.Snapshot{}, fmt.Errorf("submit request: %w", err)
	}
	l.logger.Info("request submitted", "request", req.ID, "member", req.MemberName, "books", len(req.BookIDs))

	snap, err := l.finishLocked("submit request")
	return req, snap, err
}

// ApproveRequest turns a pending request into one Active loan per book,
// dated today, and removes the request. Availability is re-validated first
// with the request's own holds excluded; if any book has lost its copy in
// the meantime the whole approval is rejected with ErrUnavailable.
func (l *Library) ApproveRequest(id string) ([]types.Loan, types.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	requests, err := l.store.LoadRequests()
	if err != nil {
		return nil, types.Snapshot{}, fmt.Errorf("approve request: %w", err)
	}
	i, ok := findRequest(requests, id)
	if !ok {
		return nil, types.Snapshot{}, fmt.Errorf("approve request: %w: %s", types.ErrRequestNotFound, id)
	}
	req := requests[i]

	books, err := l.reconcileLocked()
	if err != nil {
		return nil, types.Snapshot{}, fmt.Errorf("approve request: %w", err)
	}
	own := HoldCounts(nil, []types.BorrowRequest{req})
	for _, bookID := range req.BookIDs {
		j, found := findBook(books, bookID)
		if !found {
			return nil, types.Snapshot{}, fmt.Errorf("approve request: %w: %s", types.ErrBookNotFound, bookID)
		}
		if books[j].FreeCopies()+own[bookID] < 1 {
			return nil, types.Snapshot{}, fmt.Errorf("approve request: %w: %q has no free copy",
				types.ErrUnavailable, books[j].Title)
		}
	}

	loans, err := l.store.LoadLoans()
	if err != nil {
		return nil, types.Snapshot{}, fmt.Errorf("approve request: %w", err)
	}
	today := l.Today()
	created := make([]types.Loan, 0, len(req.BookIDs))
	for _, bookID := range req.BookIDs {
		created = append(created, types.NewLoan(l.newID(), bookID, req.MemberName, today))
	}
	original := slices.Clone(loans)
	loans = append(loans, created...)
	if err := l.store.SaveLoans(loans); err != nil {
		return nil, types.Snapshot{}, fmt.Errorf("approve request: %w", err)
	}
	requests = slices.Delete(requests, i, i+1)
	if err := l.store.SaveRequests(requests); err != nil {
		// The request is still pending, so the new loans must go.
		if rollbackErr := l.store.SaveLoans(original); rollbackErr != nil {
			l.logger.Error("approve request left loans for a pending request",
				"request", id, "loans", loanIDs(created), "err", rollbackErr)
		}
		return nil, types.Snapshot{}, fmt.Errorf("approve request: %w", err)
	}
	l.logger.Info("request approved", "request", id, "member", req.MemberName, "loans", len(created))

	snap, err := l.finishLocked("approve request")
	return created, snap, err
}

// DeclineRequest removes a pending request without creating loans.
func (l *Library) DeclineRequest(id string) (types.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	requests, err := l.store.LoadRequests()
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("decline request: %w", err)
	}
	i, ok := findRequest(requests, id)
	if !ok {
		return types.Snapshot{}, fmt.Errorf("decline request: %w: %s", types.ErrRequestNotFound, id)
	}
	requests = slices.Delete(requests, i, i+1)
	if err := l.store.SaveRequests(requests); err != nil {
		return types.Snapshot{}, fmt.Errorf("decline request: %w", err)
	}
	l.logger.Info("request declined", "request", id)

	return l.finishLocked("decline request")
}

// Requests returns the pending requests in submission order. Storage errors
// are logged and yield an empty list.
func (l *Library) Requests() []types.BorrowRequest {
	l.mu.Lock()
	defer l.mu.Unlock()

	requests, err := l.store.LoadRequests()
	if err != nil {
		l.logger.Error("loading requests", "err", err)
		return []types.BorrowRequest{}
	}
	return requests
}

func loanIDs(loans []types.Loan) []string {
	ids := make([]string, len(loans))
	for i, loan := range loans {
		ids[i] = loan.ID
	}
	return ids
}
