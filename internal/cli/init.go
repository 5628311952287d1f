package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the data store",
		Long: "Create the configuration and data directories, open the configured\n" +
			"backend and seed the built-in catalog and users when they are empty.",
		Args:        wrapArgs(cobra.NoArgs),
		Annotations: map[string]string{annotationSeedStrict: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			seeded, err := a.seed()
			if err != nil {
				return err
			}
			books := a.lib.Books()
			backend := a.cfg.GetString(cfgKeyBackend)
			out := map[string]any{"backend": backend, "books": len(books), "seeded": seeded}
			return a.emit(cmd, out, func(w io.Writer) error {
				fmt.Fprintf(w, "Stacks initialized (%s backend, %d books in catalog)\n", backend, len(books))
				if seeded.Books {
					fmt.Fprintln(w, "Seeded the built-in catalog.")
				}
				if seeded.Users {
					fmt.Fprintln(w, "Seeded the built-in librarian and members.")
				}
				return nil
			})
		},
	}
}
