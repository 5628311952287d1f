package types

import "fmt"

// LoanStatus is the stored or displayed state of a loan.
type LoanStatus string

// Loan states. Active and Returned are stored; Overdue is only ever derived
// for display by EffectiveStatus.
const (
	LoanActive   LoanStatus = "Active"
	LoanReturned LoanStatus = "Returned"
	LoanOverdue  LoanStatus = "Overdue"
)

// LoanPeriodDays is the fixed distance between a loan date and its due date.
const LoanPeriodDays = 14

// UnknownBookTitle is displayed for a loan whose book no longer exists.
const UnknownBookTitle = "Unknown"

// Loan records one copy of a book lent to a member.
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"bookId"`
	MemberName string     `json:"memberName"`
	LoanDate   Date       `json:"loanDate"`
	DueDate    Date       `json:"dueDate"`
	Status     LoanStatus `json:"status"`
}

// DueDateFor returns the due date of a loan made on loanDate.
func DueDateFor(loanDate Date) Date {
	return loanDate.AddDays(LoanPeriodDays)
}

// NewLoan returns an Active loan with its due date computed from loanDate.
func NewLoan(id, bookID, memberName string, loanDate Date) Loan {
	return Loan{
		ID:         id,
		BookID:     bookID,
		MemberName: memberName,
		LoanDate:   loanDate,
		DueDate:    DueDateFor(loanDate),
		Status:     LoanActive,
	}
}

// Return marks the loan as returned.
// Returns ErrInvalidTransition if the loan is not Active. Returned is a
// terminal state.
func (l *Loan) Return() error {
	if l.Status != LoanActive {
		return fmt.Errorf("%w: loan %s is %s", ErrInvalidTransition, l.ID, l.Status)
	}
	l.Status = LoanReturned
	return nil
}

// EffectiveStatus derives the displayed status: Returned if returned,
// Overdue if today is strictly after the due date, Active otherwise.
func (l Loan) EffectiveStatus(today Date) LoanStatus {
	if l.Status == LoanReturned {
		return LoanReturned
	}
	if today.After(l.DueDate) {
		return LoanOverdue
	}
	return LoanActive
}

// Deletable reports whether the loan may be removed.
func (l Loan) Deletable(today Date) bool {
	return l.EffectiveStatus(today) == LoanReturned
}

// HoldsCopy reports whether the loan claims a copy of its book.
func (l Loan) HoldsCopy() bool {
	return l.Status == LoanActive
}

// LoanView is a loan prepared for display.
type LoanView struct {
	Loan
	BookTitle     string     `json:"bookTitle"`
	DisplayStatus LoanStatus `json:"displayStatus"`
}
