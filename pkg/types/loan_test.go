package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoan(t *testing.T) {
	l := NewLoan("l1", "b1", "Alice", Date{2024, time.January, 1})

	assert.Equal(t, LoanActive, l.Status)
	assert.Equal(t, "2024-01-15", l.DueDate.String())
	assert.True(t, l.HoldsCopy())
}

func TestLoanReturn(t *testing.T) {
	l := NewLoan("l1", "b1", "Alice", Date{2024, time.January, 1})

	require.NoError(t, l.Return())
	assert.Equal(t, LoanReturned, l.Status)
	assert.False(t, l.HoldsCopy())

	err := l.Return()
	assert.ErrorIs(t, err, ErrInvalidTransition, "Returned is terminal")
	assert.Equal(t, LoanReturned, l.Status)
}

func TestLoanEffectiveStatus(t *testing.T) {
	loanDate := Date{2024, time.January, 1}
	active := NewLoan("l1", "b1", "Alice", loanDate)
	returned := active
	returned.Status = LoanReturned

	tests := []struct {
		name      string
		loan      Loan
		today     Date
		want      LoanStatus
		deletable bool
	}{
		{"active before due date", active, Date{2024, time.January, 10}, LoanActive, false},
		{"active on due date", active, Date{2024, time.January, 15}, LoanActive, false},
		{"active after due date is overdue", active, Date{2024, time.January, 16}, LoanOverdue, false},
		{"returned stays returned after due date", returned, Date{2024, time.March, 1}, LoanReturned, true},
		{"returned before due date", returned, Date{2024, time.January, 2}, LoanReturned, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loan.EffectiveStatus(tt.today))
			assert.Equal(t, tt.deletable, tt.loan.Deletable(tt.today))
		})
	}
}

func TestLoanJSONFieldNames(t *testing.T) {
	l := NewLoan("l1", "b1", "Alice", Date{2024, time.January, 1})
	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "l1",
		"bookId": "b1",
		"memberName": "Alice",
		"loanDate": "2024-01-01",
		"dueDate": "2024-01-15",
		"status": "Active"
	}`, string(data))
}
