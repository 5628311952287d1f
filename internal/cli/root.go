// Package cli implements the stacks command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/stacks/internal/auth"
	"github.com/mesh-intelligence/stacks/internal/circulation"
	"github.com/mesh-intelligence/stacks/internal/logging"
	"github.com/mesh-intelligence/stacks/internal/paths"
	"github.com/mesh-intelligence/stacks/pkg/store"
	"github.com/mesh-intelligence/stacks/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// annotationNoStore marks commands that run without opening the store.
const annotationNoStore = "stacks/no-store"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
}

// app carries the state shared by one command invocation.
type app struct {
	flags  rootFlags
	cfg    *viper.Viper
	logger *slog.Logger
	store  types.Store
	lib    *circulation.Library
	auth   *auth.Service

	// readSecret prompts for a password or PIN when none was given by flag.
	readSecret func(cmd *cobra.Command, prompt string) (string, error)
}

// newRootCmd creates the top-level "stacks" command with global flags and
// all subcommands registered against a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "stacks",
		Short: "Library circulation: catalog, loans and borrow requests",
		Long: "Stacks tracks a library's books, loans and member borrow requests,\n" +
			"keeping every book's on-hold count consistent with its loans and requests.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/stacks)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/stacks)")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: memory, jsonl, sqlite or postgres")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newReconcileCmd(a))
	root.AddCommand(newBookCmd(a))
	root.AddCommand(newLoanCmd(a))
	root.AddCommand(newRequestCmd(a))
	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newWhoamiCmd(a))

	return root
}

// Execute runs the root command with the process arguments and exits with
// the matching code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Run executes the command line args and returns the exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{readSecret: promptSecret}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}

// setup loads configuration, opens the store, seeds empty collections and
// wires the services for the command about to run.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if !needsStore(cmd) {
		return nil
	}
	if err := loadDotEnv(envFileName); err != nil {
		return err
	}
	configDir, configFrom, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if err := loadDotEnv(filepath.Join(configDir, envFileName)); err != nil {
		return err
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	if err := v.BindPFlag(cfgKeyBackend, cmd.Flags().Lookup("backend")); err != nil {
		return fmt.Errorf("bind backend flag: %w", err)
	}
	a.cfg = v

	logger, err := logging.New(cmd.ErrOrStderr(), v.GetString(cfgKeyLogLevel), v.GetString(cfgKeyLogFormat))
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	a.logger = logger

	dataDir, dataFrom, err := paths.ResolveDataDir(a.flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:     v.GetString(cfgKeyBackend),
		DataDir:     dataDir,
		PostgresDSN: v.GetString(cfgKeyPostgresDSN),
	}
	s, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = s
	a.lib = circulation.New(s, circulation.WithLogger(logger))
	a.auth = auth.New(s, auth.WithLogger(logger))
	logger.Debug("store opened", "backend", cfg.Backend,
		"config_dir", configDir, "config_from", configFrom,
		"data_dir", dataDir, "data_from", dataFrom)

	if cmd.Annotations[annotationSeedStrict] == "true" {
		return nil
	}
	a.seedQuietly()
	return nil
}

// annotationSeedStrict marks commands that seed the store themselves and
// fail on any seeding error.
const annotationSeedStrict = "stacks/seed-strict"

// seedResult reports which collections received the built-in data.
type seedResult struct {
	Books bool `json:"books"`
	Users bool `json:"users"`
}

// seed installs the built-in catalog and users into empty collections. Each
// collection is seeded independently.
func (a *app) seed() (seedResult, error) {
	var res seedResult
	var booksErr, usersErr error
	res.Books, booksErr = a.lib.SeedCatalog()
	res.Users, usersErr = a.auth.SeedUsers()
	return res, errors.Join(booksErr, usersErr)
}

// seedQuietly seeds on first use. A failure is logged and left to the
// command: read views fall back to empty collections and mutations report
// the storage error themselves.
func (a *app) seedQuietly() {
	if _, err := a.seed(); err != nil {
		a.logger.Warn("seeding skipped", "err", err)
	}
}

// close releases the store opened by setup.
func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func needsStore(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationNoStore] == "true" {
		return false
	}
	switch cmd.Name() {
	case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}
	return cmd.Runnable()
}

// requireLibrarian refuses the command unless a librarian is signed in or
// require_login is disabled.
func (a *app) requireLibrarian() error {
	if !a.cfg.GetBool(cfgKeyRequireLogin) {
		return nil
	}
	if _, err := a.auth.Current(types.RoleLibrarian); err != nil {
		if errors.Is(err, types.ErrNoSession) {
			return fmt.Errorf("%w: run 'stacks login librarian' first", types.ErrNoSession)
		}
		return err
	}
	return nil
}

// usageError marks command-line mistakes caught by cobra.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// wrapArgs turns cobra argument validation failures into usage errors.
func wrapArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// userErrors are the failures caused by the request rather than the system.
var userErrors = []error{
	types.ErrMissingField,
	types.ErrInvalidISBN,
	types.ErrInvalidYear,
	types.ErrInvalidCopies,
	types.ErrInvalidMemberName,
	types.ErrInvalidSelection,
	types.ErrInvalidData,
	types.ErrUnavailable,
	types.ErrBookNotFound,
	types.ErrLoanNotFound,
	types.ErrRequestNotFound,
	types.ErrInvalidTransition,
	types.ErrLoanNotDeletable,
	types.ErrInvalidCredentials,
	types.ErrNoSession,
	types.ErrInvalidRole,
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	// cobra reports unknown subcommands before any hook runs.
	if strings.HasPrefix(err.Error(), "unknown command") {
		return exitUserError
	}
	return exitSysError
}
