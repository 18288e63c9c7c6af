package cmd

import (
	"bytes"
	"testing"

	"esmconvert/internal/version"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newVersionTestRoot returns a scratch root carrying only the version
// command, keeping each test isolated from shared rootCmd state.
func newVersionTestRoot() *cobra.Command {
	root := &cobra.Command{Use: "esmconvert"}
	root.AddCommand(newVersionCmd())
	return root
}

func TestVersionCommand_FullOutput(t *testing.T) {
	version.SetBuildVars("v2.0.0", "def456abc789", "2025-06-15T10:30:00Z")
	defer version.ResetBuildVars()

	root := newVersionTestRoot()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())

	output := buf.String()
	assert.Contains(t, output, version.ApplicationName)
	assert.Contains(t, output, "Version: v2.0.0")
	assert.Contains(t, output, "Commit: def456abc789")
	assert.Contains(t, output, "Built: 2025-06-15T10:30:00Z")
}

func TestVersionCommand_ShortFlag(t *testing.T) {
	version.SetBuildVars("v1.5.0", "short123", "2025-06-15T10:30:00Z")
	defer version.ResetBuildVars()

	root := newVersionTestRoot()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version", "--short"})

	require.NoError(t, root.Execute())

	assert.Equal(t, "v1.5.0\n", buf.String(), "short output should be the bare version")
}

func TestVersionCommand_DefaultsWithoutBuildInfo(t *testing.T) {
	version.ResetBuildVars()

	root := newVersionTestRoot()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())

	output := buf.String()
	assert.Contains(t, output, "Version: dev")
	assert.Contains(t, output, "Commit: unknown")
}
