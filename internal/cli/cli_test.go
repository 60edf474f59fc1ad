package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_RegistersAllSubcommands(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"status", "acquire", "stop-accepting", "run"} {
		require.True(t, names[want], "expected subcommand %q to be registered", want)
	}
}

func TestRunCmd_NoArgsExitsTwo(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"run"})
	err := root.Execute()

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code())
	require.Contains(t, exitErr.Error(), "at least one problem path")
}

func TestRunCmd_MissingConfigFileExitsTwo(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"run", "--config", filepath.Join(t.TempDir(), "nope.toml"), "problem.p"})
	err := root.Execute()

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code())
}

func TestRunCmd_NoProversConfiguredExitsTwo(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "empty.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("timeout_s = 5\n"), 0o644))

	root := NewRootCmd()
	root.SetArgs([]string{"run", "--config", cfgPath, "problem.p"})
	err := root.Execute()

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code())
	require.Contains(t, exitErr.Error(), "no provers configured")
}

func TestStatusCmd_UnreachableDaemonReturnsError(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"status", "--port", "1"})
	err := root.Execute()
	require.Error(t, err)

	// A dial failure is a plain error, not an ExitError — main falls back
	// to exit code 1 for it.
	var exitErr *ExitError
	require.False(t, errors.As(err, &exitErr))
}
