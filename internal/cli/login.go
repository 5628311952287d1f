package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// promptSecret asks for a secret on stderr. On a terminal the input is not
// echoed; otherwise one line is read from the command's input.
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(secret), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a librarian or member",
	}
	cmd.AddCommand(newLoginLibrarianCmd(a))
	cmd.AddCommand(newLoginMemberCmd(a))
	return cmd
}

func newLoginLibrarianCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "librarian",
		Short: "Sign in with a librarian username and password",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("password") {
				var err error
				if password, err = a.readSecret(cmd, "Password: "); err != nil {
					return err
				}
			}
			session, err := a.auth.LoginLibrarian(username, password)
			if err != nil {
				return err
			}
			return a.emit(cmd, session, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Signed in as librarian %s\n", session.Name)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "librarian username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "librarian password (prompted when omitted)")
	return cmd
}

func newLoginMemberCmd(a *app) *cobra.Command {
	var card, pin string
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Sign in with a library card number and PIN",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pin") {
				var err error
				if pin, err = a.readSecret(cmd, "PIN: "); err != nil {
					return err
				}
			}
			session, err := a.auth.LoginMember(card, pin)
			if err != nil {
				return err
			}
			return a.emit(cmd, session, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Signed in as member %s\n", session.Name)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&card, "card", "", "library card number")
	cmd.Flags().StringVar(&pin, "pin", "", "PIN (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "logout <librarian|member>",
		Short:     "End a session",
		Args:      wrapArgs(cobra.ExactArgs(1)),
		ValidArgs: []string{string(types.RoleLibrarian), string(types.RoleMember)},
		RunE: func(cmd *cobra.Command, args []string) error {
			role := types.Role(args[0])
			if err := a.auth.Logout(role); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"loggedOut": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Signed out %s\n", role)
				return err
			})
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active sessions",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sessions []types.Session
			for _, role := range []types.Role{types.RoleLibrarian, types.RoleMember} {
				s, err := a.auth.Current(role)
				if errors.Is(err, types.ErrNoSession) {
					continue
				}
				if err != nil {
					return err
				}
				sessions = append(sessions, s)
			}
			return a.emit(cmd, sessions, func(w io.Writer) error {
				if len(sessions) == 0 {
					_, err := fmt.Fprintln(w, "Not signed in.")
					return err
				}
				for _, s := range sessions {
					fmt.Fprintf(w, "%s: %s (since %s)\n", s.Role, s.Name, s.LoggedInAt.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}
