package circulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

func TestSubmitRequest(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 1), testBook("b2", "Fiction", 2))

	req, snap, err := f.lib.SubmitRequest(" Bob ", []string{"b1", "b2"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", req.MemberName)
	assert.Equal(t, []string{"b1", "b2"}, req.BookIDs)
	assert.Equal(t, "2024-01-01", req.RequestDate.String())

	require.Len(t, snap.Requests, 1)
	assert.Equal(t, 1, bookByID(t, snap.Books, "b1").OnHoldCopies)
	assert.False(t, bookByID(t, snap.Books, "b1").Available)
	assert.Equal(t, 1, bookByID(t, snap.Books, "b2").OnHoldCopies)
	assertConsistent(t, f.store)
}

func TestSubmitRequestRejections(t *testing.T) {
	tests := []struct {
		name    string
		member  string
		ids     []string
		wantErr error
	}{
		{"blank member", "", []string{"b1"}, types.ErrInvalidMemberName},
		{"empty selection", "Bob", nil, types.ErrInvalidSelection},
		{"six books", "Bob", []string{"b1", "b2", "b3", "b4", "b5", "b6"}, types.ErrInvalidSelection},
		{"duplicates", "Bob", []string{"b1", "b1"}, types.ErrInvalidSelection},
		{"unknown book", "Bob", []string{"b1", "nope"}, types.ErrBookNotFound},
		{"one book unavailable rejects all", "Bob", []string{"b1", "full"}, types.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testBook("b1", "Fiction", 3), testBook("full", "Fiction", 1))
			_, _, err := f.lib.CreateLoan("full", "Zed", types.Date{})
			require.NoError(t, err)

			_, _, err = f.lib.SubmitRequest(tt.member, tt.ids)
			assert.ErrorIs(t, err, tt.wantErr)

			requests, err := f.store.LoadRequests()
			require.NoError(t, err)
			assert.Empty(t, requests, "no request persisted")
			assertConsistent(t, f.store)
		})
	}
}

func TestApproveRequest(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 1), testBook("b2", "Fiction", 1))
	req, _, err := f.lib.SubmitRequest("Bob", []string{"b1", "b2"})
	require.NoError(t, err)
	f.clock.advance(2)

	loans, snap, err := f.lib.ApproveRequest(req.ID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	for _, loan := range loans {
		assert.Equal(t, "Bob", loan.MemberName)
		assert.Equal(t, types.LoanActive, loan.Status)
		assert.Equal(t, "2024-01-03", loan.LoanDate.String())
		assert.Equal(t, "2024-01-17", loan.DueDate.String())
	}
	assert.Empty(t, snap.Requests)
	assert.Len(t, snap.Loans, 2)
	assert.Equal(t, 0, bookByID(t, snap.Books, "b1").FreeCopies())
	assert.Equal(t, 0, bookByID(t, snap.Books, "b2").FreeCopies())
	assertConsistent(t, f.store)
}

func TestApproveRequestRevalidates(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 1), testBook("b2", "Fiction", 1))
	req, _, err := f.lib.SubmitRequest("Bob", []string{"b1", "b2"})
	require.NoError(t, err)

	// Another process lends b2 in the meantime.
	loans, err := f.store.LoadLoans()
	require.NoError(t, err)
	loans = append(loans, types.NewLoan("other", "b2", "Eve", date(2024, time.January, 1)))
	require.NoError(t, f.store.SaveLoans(loans))

	_, _, err = f.lib.ApproveRequest(req.ID)
	assert.ErrorIs(t, err, types.ErrUnavailable)

	requests, err := f.store.LoadRequests()
	require.NoError(t, err)
	assert.Len(t, requests, 1, "request stays pending")
	loans, err = f.store.LoadLoans()
	require.NoError(t, err)
	assert.Len(t, loans, 1, "no loans created")
}

func TestApproveRequestDeletedBook(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 1), testBook("b2", "Fiction", 1))
	req, _, err := f.lib.SubmitRequest("Bob", []string{"b1", "b2"})
	require.NoError(t, err)
	_, err = f.lib.DeleteBook("b2")
	require.NoError(t, err)

	_, _, err = f.lib.ApproveRequest(req.ID)
	assert.ErrorIs(t, err, types.ErrBookNotFound)
}

func TestApproveRequestNotFound(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.lib.ApproveRequest("nope")
	assert.ErrorIs(t, err, types.ErrRequestNotFound)
}

func TestDeclineRequest(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 1))
	req, _, err := f.lib.SubmitRequest("Bob", []string{"b1"})
	require.NoError(t, err)

	snap, err := f.lib.DeclineRequest(req.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.Requests)
	assert.Empty(t, snap.Loans)
	assert.True(t, bookByID(t, snap.Books, "b1").Available)

	_, err = f.lib.DeclineRequest(req.ID)
	assert.ErrorIs(t, err, types.ErrRequestNotFound)
}

func TestRequestsView(t *testing.T) {
	f := newFixture(t, testBook("b1", "Fiction", 2))
	_, _, err := f.lib.SubmitRequest("Ann", []string{"b1"})
	require.NoError(t, err)
	_, _, err = f.lib.SubmitRequest("Bob", []string{"b1"})
	require.NoError(t, err)

	requests := f.lib.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "Ann", requests[0].MemberName)
	assert.Equal(t, "Bob", requests[1].MemberName)

	f.backend.Put(types.CollectionRequests, `[`)
	assert.Empty(t, f.lib.Requests())
}
