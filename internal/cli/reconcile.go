package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newReconcileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute every book's on-hold count from loans and requests",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := a.lib.Reconcile()
			if err != nil {
				return err
			}
			return a.emit(cmd, books, func(w io.Writer) error {
				fmt.Fprintf(w, "Reconciled %d books\n", len(books))
				return writeBooks(w, books)
			})
		},
	}
}
