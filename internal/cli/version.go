package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the stacks release, overridden at build time with
// -ldflags "-X github.com/mesh-intelligence/stacks/internal/cli.Version=...".
var Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/stacks"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the stacks version",
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "stacks v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
