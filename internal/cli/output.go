package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// emit writes v as indented JSON when --json is set, and otherwise calls
// human to render the plain-text form.
func (a *app) emit(cmd *cobra.Command, v any, human func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	}
	return human(w)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeBooks(w io.Writer, books []types.Book) error {
	if len(books) == 0 {
		_, err := fmt.Fprintln(w, "No books found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tYEAR\tCOPIES\tON HOLD\tFREE")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			b.ID, b.Title, b.Author, b.Genre, b.Year, b.TotalCopies, b.OnHoldCopies, b.FreeCopies())
	}
	return tw.Flush()
}

func writeBook(w io.Writer, b types.Book) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", b.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", b.Title)
	fmt.Fprintf(tw, "Author:\t%s\n", b.Author)
	fmt.Fprintf(tw, "ISBN:\t%s\n", b.ISBN)
	fmt.Fprintf(tw, "Year:\t%d\n", b.Year)
	fmt.Fprintf(tw, "Genre:\t%s\n", b.Genre)
	fmt.Fprintf(tw, "Copies:\t%d total, %d on hold, %d free\n", b.TotalCopies, b.OnHoldCopies, b.FreeCopies())
	return tw.Flush()
}

func writeLoans(w io.Writer, loans []types.LoanView) error {
	if len(loans) == 0 {
		_, err := fmt.Fprintln(w, "No loans found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tBOOK\tMEMBER\tLOANED\tDUE\tSTATUS")
	for _, l := range loans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.BookTitle, l.MemberName, l.LoanDate, l.DueDate, l.DisplayStatus)
	}
	return tw.Flush()
}

func writeLoan(w io.Writer, l types.Loan) error {
	_, err := fmt.Fprintf(w, "Loan %s: book %s to %s, %s until %s (%s)\n",
		l.ID, l.BookID, l.MemberName, l.LoanDate, l.DueDate, l.Status)
	return err
}

func writeRequests(w io.Writer, requests []types.BorrowRequest) error {
	if len(requests) == 0 {
		_, err := fmt.Fprintln(w, "No pending borrow requests.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tMEMBER\tREQUESTED\tBOOKS")
	for _, r := range requests {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.MemberName, r.RequestDate, strings.Join(r.BookIDs, ","))
	}
	return tw.Flush()
}
