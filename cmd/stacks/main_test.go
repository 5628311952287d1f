package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

var (
	// stacksBin is the path to the binary built by TestMain.
	stacksBin string
	// buildErr captures a failed build so tests report it.
	buildErr error
)

// TestMain builds the stacks binary once before running tests.
func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "stacks-test-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	stacksBin = filepath.Join(tmpDir, "stacks")
	cmd := exec.Command("go", "build", "-o", stacksBin, ".")
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = fmt.Errorf("%w: %s", err, output)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// testEnv is an isolated config and data directory pair.
type testEnv struct {
	t         *testing.T
	configDir string
}

type cmdResult struct {
	stdout   string
	stderr   string
	exitCode int
}

func newTestEnv(t *testing.T, backend string) *testEnv {
	t.Helper()
	require.NoError(t, buildErr, "build stacks")

	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")
	dataDir := filepath.Join(tempDir, "data")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	content := fmt.Sprintf("backend: %s\ndata_dir: %s\nlog_level: warn\nlog_format: text\nrequire_login: true\n", backend, dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o644))
	return &testEnv{t: t, configDir: configDir}
}

func (e *testEnv) run(args ...string) cmdResult {
	e.t.Helper()
	cmd := exec.Command(stacksBin, append([]string{"--config-dir", e.configDir}, args...)...)
	cmd.Env = filteredEnv()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := cmdResult{stdout: stdout.String(), stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
	} else {
		require.NoError(e.t, err)
	}
	return res
}

// filteredEnv drops STACKS_* variables so the host cannot change the test
// configuration.
func filteredEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "STACKS_") {
			continue
		}
		env = append(env, kv)
	}
	return env
}

func TestBinaryExitCodes(t *testing.T) {
	env := newTestEnv(t, types.BackendJSONL)

	assert.Equal(t, 0, env.run("version").exitCode)
	assert.Equal(t, 1, env.run("no-such-command").exitCode)
	assert.Equal(t, 1, env.run("loan", "list").exitCode, "loan list needs a librarian session")

	res := env.run("--backend", "bogus", "book", "list")
	assert.Equal(t, 2, res.exitCode)
	assert.Contains(t, res.stderr, "Error:")
}

func TestBinaryCirculation(t *testing.T) {
	for _, backend := range []string{types.BackendJSONL, types.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			env := newTestEnv(t, backend)
			require.Equal(t, 0, env.run("init").exitCode)
			require.Equal(t, 0, env.run("login", "librarian", "-u", "admin", "-p", "admin123").exitCode)

			res := env.run("--json", "book", "add", "--title", "Solo", "--author", "A. Writer",
				"--isbn", "1591846447", "--year", "2011", "--genre", "Drama", "--copies", "1")
			require.Equal(t, 0, res.exitCode, res.stderr)
			var book types.Book
			require.NoError(t, json.Unmarshal([]byte(res.stdout), &book))

			res = env.run("loan", "create", "--book", book.ID, "--member", "Adriana")
			require.Equal(t, 0, res.exitCode, res.stderr)

			res = env.run("request", "submit", "--member", "John", book.ID)
			assert.Equal(t, 1, res.exitCode)
			assert.Contains(t, res.stderr, types.ErrUnavailable.Error())

			res = env.run("--json", "book", "available")
			require.Equal(t, 0, res.exitCode, res.stderr)
			var available []types.Book
			require.NoError(t, json.Unmarshal([]byte(res.stdout), &available))
			for _, b := range available {
				assert.NotEqual(t, book.ID, b.ID)
			}
		})
	}
}
