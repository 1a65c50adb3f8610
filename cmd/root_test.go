package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A command that fails must still leave a flushed session snapshot behind;
// cobra does not run post-run hooks after a RunE error, so the flush lives
// in Execute.
func TestExecuteFlushesStateAfterCommandError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COMPANION_STATE_DIR", dir)

	failing := &cobra.Command{
		Use: "always-fails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("boom")
		},
	}
	rootCmd.AddCommand(failing)
	t.Cleanup(func() { rootCmd.RemoveCommand(failing) })

	rootCmd.SetArgs([]string{"always-fails"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := Execute()
	require.Error(t, err)
	assert.EqualError(t, err, "boom")

	_, statErr := os.Stat(filepath.Join(dir, "session.json"))
	require.NoError(t, statErr, "session snapshot was not written")
}
