package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_PATH", filepath.Join(t.TempDir(), "datastore.json"))
	t.Setenv("LOG_LEVEL", "disabled")
	t.Setenv("COOLDOWN_PER_MINUTE", "0")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	_, err := rootCmd.ExecuteC()
	return out.String(), err
}

func TestRun_EchoesThroughEngine(t *testing.T) {
	out, err := execute(t, "run", "echo", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)
}

func TestRun_ReportsFailureState(t *testing.T) {
	out, err := execute(t, "run", "mony")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_found")
	assert.Contains(t, out, "Did you mean")
}

func TestCommands_ListsRegistry(t *testing.T) {
	out, err := execute(t, "commands")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "money")
	assert.Contains(t, out, "Moderator")

	out, err = execute(t, "commands", "--markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "- **`$money")
}
