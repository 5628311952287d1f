package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

func newRequestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "request",
		Aliases: []string{"requests"},
		Short:   "Manage member borrow requests",
	}
	cmd.AddCommand(newRequestListCmd(a))
	cmd.AddCommand(newRequestSubmitCmd(a))
	cmd.AddCommand(newRequestApproveCmd(a))
	cmd.AddCommand(newRequestDeclineCmd(a))
	return cmd
}

func newRequestListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending borrow requests",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			requests := a.lib.Requests()
			return a.emit(cmd, requests, func(w io.Writer) error { return writeRequests(w, requests) })
		},
	}
}

func newRequestSubmitCmd(a *app) *cobra.Command {
	var member string
	cmd := &cobra.Command{
		Use:   "submit <book-id>...",
		Short: "Request up to five books",
		Long: "Submit a borrow request. The member name defaults to the signed-in\n" +
			"member; every selected book must have a free copy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("member") {
				session, err := a.auth.Current(types.RoleMember)
				switch {
				case err == nil:
					member = session.Name
				case !errors.Is(err, types.ErrNoSession):
					return err
				}
			}
			req, _, err := a.lib.SubmitRequest(member, args)
			if err != nil {
				return err
			}
			return a.emit(cmd, req, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Submitted request %s for %d book(s)\n", req.ID, len(req.BookIDs))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&member, "member", "", "member name (default: signed-in member)")
	return cmd
}

func newRequestApproveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a request, creating one loan per book",
		Args:  wrapArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			loans, _, err := a.lib.ApproveRequest(args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, loans, func(w io.Writer) error {
				fmt.Fprintf(w, "Approved request %s\n", args[0])
				for _, l := range loans {
					if err := writeLoan(w, l); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newRequestDeclineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decline <id>",
		Short: "Decline a request and release its holds",
		Args:  wrapArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			if _, err := a.lib.DeclineRequest(args[0]); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"declined": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Declined request %s\n", args[0])
				return err
			})
		},
	}
}
