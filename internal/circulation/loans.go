package circulation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// CreateLoan lends one copy of bookID to memberName. A zero loanDate means
// today. The book must exist and have a free copy; the new Active loan
// becomes a hold through reconciliation.
func (l *Library) CreateLoan(bookID, memberName string, loanDate types.Date) (types.Loan, types.Snapshot, error) {
	bookID = strings.TrimSpace(bookID)
	memberName = strings.TrimSpace(memberName)
	if bookID == "" {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("create loan: %w: bookId", types.ErrMissingField)
	}
	if memberName == "" {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("create loan: %w", types.ErrInvalidMemberName)
	}
	if loanDate.IsZero() {
		loanDate = l.Today()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.reconcileLocked()
	if err != nil {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("create loan: %w", err)
	}
	if err := requireFreeCopy(books, bookID); err != nil {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("create loan: %w", err)
	}

	loans, err := l.store.LoadLoans()
	if err != nil {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("create loan: %w", err)
	}
	loan := types.NewLoan(l.newID(), bookID, memberName, loanDate)
	loans = append(loans, loan)
	if err := l.store.SaveLoans(loans); err != nil {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("create loan: %w", err)
	}
	l.logger.Info("loan created", "loan", loan.ID, "book", bookID, "member", memberName, "due", loan.DueDate)

	snap, err := l.finishLocked("create loan")
	return loan, snap, err
}

// requireFreeCopy returns ErrBookNotFound or ErrUnavailable unless the book
// exists in the reconciled books and has at least one free copy.
func requireFreeCopy(books []types.Book, bookID string) error {
	i, ok := findBook(books, bookID)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrBookNotFound, bookID)
	}
	if books[i].FreeCopies() < 1 {
		return fmt.Errorf("%w: %q has no free copy", types.ErrUnavailable, books[i].Title)
	}
	return nil
}

// EditLoan replaces the stored loan with the same id. The due date is always
// recomputed from the loan date and the status cannot change through an
// edit. Re-pointing an Active loan at another book requires a free copy of
// that book.
func (l *Library) EditLoan(edited types.Loan) (types.Loan, types.Snapshot, error) {
	edited.BookID = strings.TrimSpace(edited.BookID)
	edited.MemberName = strings.TrimSpace(edited.MemberName)
	if edited.BookID == "" {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("edit loan: %w: bookId", types.ErrMissingField)
	}
	if edited.MemberName == "" {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("edit loan: %w", types.ErrInvalidMemberName)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	loans, err := l.store.LoadLoans()
	if err != nil {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("edit loan: %w", err)
	}
	i, ok := findLoan(loans, edited.ID)
	if !ok {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("edit loan: %w: %s", types.ErrLoanNotFound, edited.ID)
	}
	current := loans[i]

	if edited.Status != "" && edited.Status != current.Status {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("edit loan: %w: status %s cannot be set to %s",
			types.ErrInvalidTransition, current.Status, edited.Status)
	}
	edited.Status = current.Status
	if edited.LoanDate.IsZero() {
		edited.LoanDate = current.LoanDate
	}
	edited.DueDate = types.DueDateFor(edited.LoanDate)

	if edited.BookID != current.BookID {
		books, err := l.reconcileLocked()
		if err != nil {
			return types.Loan{}, types.Snapshot{}, fmt.Errorf("edit loan: %w", err)
		}
		if edited.HoldsCopy() {
			err = requireFreeCopy(books, edited.BookID)
		} else if _, found := findBook(books, edited.BookID); !found {
			err = fmt.Errorf("%w: %s", types.ErrBookNotFound, edited.BookID)
		}
		if err != nil {
			return types.Loan{}, types.Snapshot{}, fmt.Errorf("edit loan: %w", err)
		}
	}

	loans[i] = edited
	if err := l.store.SaveLoans(loans); err != nil {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("edit loan: %w", err)
	}
	l.logger.Info("loan edited", "loan", edited.ID, "book", edited.BookID, "due", edited.DueDate)

	snap, err := l.finishLocked("edit loan")
	return edited, snap, err
}

// ReturnLoan marks an Active loan Returned; reconciliation releases its hold.
func (l *Library) ReturnLoan(id string) (types.Loan, types.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loans, err := l.store.LoadLoans()
	if err != nil {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("return loan: %w", err)
	}
	i, ok := findLoan(loans, id)
	if !ok {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("return loan: %w: %s", types.ErrLoanNotFound, id)
	}
	if err := loans[i].Return(); err != nil {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("return loan: %w", err)
	}
	if err := l.store.SaveLoans(loans); err != nil {
		return types.Loan{}, types.Snapshot{}, fmt.Errorf("return loan: %w", err)
	}
	l.logger.Info("loan returned", "loan", id, "book", loans[i].BookID)

	snap, err := l.finishLocked("return loan")
	return loans[i], snap, err
}

// DeleteLoan removes a loan whose effective status is Returned. Active and
// Overdue loans are refused with ErrLoanNotDeletable.
func (l *Library) DeleteLoan(id string) (types.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loans, err := l.store.LoadLoans()
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("delete loan: %w", err)
	}
	i, ok := findLoan(loans, id)
	if !ok {
		return types.Snapshot{}, fmt.Errorf("delete loan: %w: %s", types.ErrLoanNotFound, id)
	}
	if status := loans[i].EffectiveStatus(l.Today()); status != types.LoanReturned {
		return types.Snapshot{}, fmt.Errorf("delete loan: %w: loan %s is %s", types.ErrLoanNotDeletable, id, status)
	}
	loans = slices.Delete(loans, i, i+1)
	if err := l.store.SaveLoans(loans); err != nil {
		return types.Snapshot{}, fmt.Errorf("delete loan: %w", err)
	}
	l.logger.Info("loan deleted", "loan", id)

	return l.finishLocked("delete loan")
}

// Loans returns every loan with its effective status and book title, ordered
// by book genre. A dangling book id shows as UnknownBookTitle. Storage errors
// are logged and yield an empty list.
func (l *Library) Loans() []types.LoanView {
	l.mu.Lock()
	defer l.mu.Unlock()

	loans, err := l.store.LoadLoans()
	if err != nil {
		l.logger.Error("loading loans", "err", err)
		return []types.LoanView{}
	}
	books, err := l.store.LoadBooks()
	if err != nil {
		l.logger.Error("loading books for loan list", "err", err)
		books = nil
	}
	byID := make(map[string]types.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	today := l.Today()
	views := make([]types.LoanView, 0, len(loans))
	genres := make(map[string]string, len(loans))
	for _, loan := range loans {
		title := types.UnknownBookTitle
		if b, ok := byID[loan.BookID]; ok {
			title = b.Title
			genres[loan.ID] = b.Genre
		}
		views = append(views, types.LoanView{
			Loan:          loan,
			BookTitle:     title,
			DisplayStatus: loan.EffectiveStatus(today),
		})
	}
	slices.SortStableFunc(views, func(a, b types.LoanView) int {
		return byGenre(types.Book{Genre: genres[a.ID]}, types.Book{Genre: genres[b.ID]})
	})
	return views
}
