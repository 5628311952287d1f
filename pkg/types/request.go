package types

import (
	"fmt"
	"strings"
)

// MaxRequestBooks is the largest number of books one borrow request may hold.
const MaxRequestBooks = 5

// BorrowRequest is a member's pending request for up to MaxRequestBooks
// books. Every entry in BookIDs holds one copy until the request is approved
// or declined.
type BorrowRequest struct {
	ID          string   `json:"id"`
	MemberName  string   `json:"memberName"`
	BookIDs     []string `json:"bookIds"`
	RequestDate Date     `json:"requestDate"`
}

// ValidateSelection checks the member name and the selected book ids of a
// new request. Checks run in order: member name, empty selection, selection
// size, duplicates.
func ValidateSelection(memberName string, bookIDs []string) error {
	if strings.TrimSpace(memberName) == "" {
		return ErrInvalidMemberName
	}
	if len(bookIDs) == 0 {
		return fmt.Errorf("%w: select at least 1 book", ErrInvalidSelection)
	}
	if len(bookIDs) > MaxRequestBooks {
		return fmt.Errorf("%w: %d books selected, at most %d allowed",
			ErrInvalidSelection, len(bookIDs), MaxRequestBooks)
	}
	seen := make(map[string]bool, len(bookIDs))
	for _, id := range bookIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty book id", ErrInvalidSelection)
		}
		if seen[id] {
			return fmt.Errorf("%w: book %s selected twice", ErrInvalidSelection, id)
		}
		seen[id] = true
	}
	return nil
}
