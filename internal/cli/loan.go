package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

func newLoanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Manage loans",
	}
	cmd.AddCommand(newLoanListCmd(a))
	cmd.AddCommand(newLoanCreateCmd(a))
	cmd.AddCommand(newLoanEditCmd(a))
	cmd.AddCommand(newLoanReturnCmd(a))
	cmd.AddCommand(newLoanDeleteCmd(a))
	return cmd
}

// parseDateFlag parses a --date value; an empty value yields the zero date.
func parseDateFlag(s string) (types.Date, error) {
	d, err := types.ParseDate(s)
	if err != nil {
		return types.Date{}, usageError{fmt.Errorf("--date: %w", err)}
	}
	return d, nil
}

func newLoanListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loans with book titles and overdue status",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			loans := a.lib.Loans()
			return a.emit(cmd, loans, func(w io.Writer) error { return writeLoans(w, loans) })
		},
	}
}

func newLoanCreateCmd(a *app) *cobra.Command {
	var bookID, member, date string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Lend a copy of a book to a member",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			loanDate, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			loan, _, err := a.lib.CreateLoan(bookID, member, loanDate)
			if err != nil {
				return err
			}
			return a.emit(cmd, loan, func(w io.Writer) error { return writeLoan(w, loan) })
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "book id")
	cmd.Flags().StringVar(&member, "member", "", "member name")
	cmd.Flags().StringVar(&date, "date", "", "loan date YYYY-MM-DD (default: today)")
	return cmd
}

func newLoanEditCmd(a *app) *cobra.Command {
	var bookID, member, date string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a loan's book, member or loan date",
		Long:  "Edit a loan. The due date is recomputed from the loan date; the status cannot be edited.",
		Args:  wrapArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			current, err := a.findLoan(args[0])
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("book") {
				current.BookID = bookID
			}
			if fs.Changed("member") {
				current.MemberName = member
			}
			if fs.Changed("date") {
				d, err := parseDateFlag(date)
				if err != nil {
					return err
				}
				current.LoanDate = d
			}
			loan, _, err := a.lib.EditLoan(current)
			if err != nil {
				return err
			}
			return a.emit(cmd, loan, func(w io.Writer) error { return writeLoan(w, loan) })
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "new book id")
	cmd.Flags().StringVar(&member, "member", "", "new member name")
	cmd.Flags().StringVar(&date, "date", "", "new loan date YYYY-MM-DD")
	return cmd
}

// findLoan returns the stored loan with id.
func (a *app) findLoan(id string) (types.Loan, error) {
	snap, err := a.lib.Snapshot()
	if err != nil {
		return types.Loan{}, err
	}
	for _, l := range snap.Loans {
		if l.ID == id {
			return l, nil
		}
	}
	return types.Loan{}, fmt.Errorf("%w: %s", types.ErrLoanNotFound, id)
}

func newLoanReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <id>",
		Short: "Mark an active loan returned",
		Args:  wrapArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			loan, _, err := a.lib.ReturnLoan(args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, loan, func(w io.Writer) error { return writeLoan(w, loan) })
		},
	}
}

func newLoanDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a returned loan",
		Args:  wrapArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			if _, err := a.lib.DeleteLoan(args[0]); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted loan %s\n", args[0])
				return err
			})
		},
	}
}
