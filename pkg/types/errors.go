package types

import "errors"

// Validation errors. The operation is aborted and no state is mutated.
var (
	ErrMissingField      = errors.New("required field missing")
	ErrInvalidISBN       = errors.New("invalid ISBN-10")
	ErrInvalidYear       = errors.New("invalid year")
	ErrInvalidCopies     = errors.New("invalid copy count")
	ErrInvalidMemberName = errors.New("member name must not be empty")
	ErrInvalidSelection  = errors.New("selection must contain 1 to 5 distinct books")
	ErrInvalidData       = errors.New("invalid entity data")
)

// ErrUnavailable is returned when a selected book has no free copy.
var ErrUnavailable = errors.New("no copies available")

// Lookup errors.
var (
	ErrBookNotFound    = errors.New("book not found")
	ErrLoanNotFound    = errors.New("loan not found")
	ErrRequestNotFound = errors.New("borrow request not found")
)

// Loan lifecycle errors.
var (
	ErrInvalidTransition = errors.New("invalid loan state transition")
	ErrLoanNotDeletable  = errors.New("only returned loans can be deleted")
)

// Storage errors.
var (
	// ErrCorruptDocument is returned when a stored collection cannot be parsed.
	ErrCorruptDocument = errors.New("stored document is corrupt")
	ErrStoreClosed     = errors.New("store is closed")
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
	ErrInvalidRole        = errors.New("invalid role")
)
