package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	out, err := run(t)
	assert.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "ember")
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	_, err := run(t, "--unknown-flag", "value")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

// Flags of a subcommand are not accepted by the root.
func TestRootCommand_RejectsSubcommandFlags(t *testing.T) {
	_, err := run(t, "--since", "1h")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag: --since")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	for _, name := range []string{"init", "serve", "events", "watch", "status"} {
		cmd, _, err := rootCmd.Find([]string{name})
		assert.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2025-10-29")
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	assert.Contains(t, rootCmd.Version, "1.2.3 (commit: abc123")
}
