package circulation

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stacks/internal/logging"
	"github.com/mesh-intelligence/stacks/pkg/types"
)

var errDiskFull = errors.New("disk full")

// flakyStore fails chosen saves and otherwise delegates to the wrapped store.
type flakyStore struct {
	types.Store
	failRequests bool
	loanSaves    int
	failLoansAt  int
}

func (s *flakyStore) SaveRequests(requests []types.BorrowRequest) error {
	if s.failRequests {
		return errDiskFull
	}
	return s.Store.SaveRequests(requests)
}

func (s *flakyStore) SaveLoans(loans []types.Loan) error {
	s.loanSaves++
	if s.failLoansAt != 0 && s.loanSaves >= s.failLoansAt {
		return errDiskFull
	}
	return s.Store.SaveLoans(loans)
}

func TestApproveRequestRestoresLoansWhenRequestSaveFails(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 1), testBook("b2", "Fiction", 2))
	_, _, err := f.lib.CreateLoan("b2", "Alice", types.Date{})
	require.NoError(t, err)
	req, _, err := f.lib.SubmitRequest("Bob", []string{"b1", "b2"})
	require.NoError(t, err)

	flaky := &flakyStore{Store: f.store, failRequests: true}
	n := 0
	lib := New(flaky, WithClock(f.clock.Now), WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("retry-%d", n)
	}))

	_, _, err = lib.ApproveRequest(req.ID)
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 2, flaky.loanSaves, "loans written then restored")

	loans, err := f.store.LoadLoans()
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, "Alice", loans[0].MemberName)

	requests, err := f.store.LoadRequests()
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, req.ID, requests[0].ID)

	// The request can still be approved once storage recovers.
	flaky.failRequests = false
	created, snap, err := lib.ApproveRequest(req.ID)
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Empty(t, snap.Requests)
	assertConsistent(t, f.store)
}

func TestApproveRequestLogsWhenRestoreFails(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 1))
	req, _, err := f.lib.SubmitRequest("Bob", []string{"b1"})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger, err := logging.New(&buf, "error", "json")
	require.NoError(t, err)
	flaky := &flakyStore{Store: f.store, failRequests: true, failLoansAt: 2}
	lib := New(flaky, WithClock(f.clock.Now), WithIDGenerator(sequentialIDs()), WithLogger(logger))

	_, _, err = lib.ApproveRequest(req.ID)
	require.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, buf.String(), "approve request left loans for a pending request")
	assert.Contains(t, buf.String(), req.ID)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}
