package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunCommand(t *testing.T) {
	cmd := NewRunCommand()

	assert.Equal(t, "run", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	// Verify flags exist
	flags := []string{"select", "full-refresh", "fail-fast", "threads", "skip-seeds"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}

	// Verify alias exists
	assert.NotEmpty(t, cmd.Aliases, "run command should have aliases")
	assert.Equal(t, "build", cmd.Aliases[0], "run command should have 'build' alias")
}

func TestNewListCommand(t *testing.T) {
	cmd := NewListCommand()

	assert.Equal(t, "list", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("select"), "flag select should exist")
}

func TestNewCompileCommand(t *testing.T) {
	cmd := NewCompileCommand()

	assert.Equal(t, "compile", cmd.Use)
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewDAGCommand(t *testing.T) {
	cmd := NewDAGCommand()

	assert.Equal(t, "dag", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("dot"), "flag dot should exist")
}

func TestNewSeedCommand(t *testing.T) {
	cmd := NewSeedCommand()

	assert.Equal(t, "seed", cmd.Use)
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewRunsCommand(t *testing.T) {
	cmd := NewRunsCommand()

	assert.Equal(t, "runs [run-id]", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("limit"), "flag limit should exist")
}

func TestVersionCommand_Output(t *testing.T) {
	cmd := NewVersionCommand("1.2.3", "2026-08-29", "abc1234")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "modelflow v1.2.3")
	assert.Contains(t, buf.String(), "abc1234")
}

func TestInitCommand_ScaffoldsProject(t *testing.T) {
	dir := t.TempDir()

	cmd := NewInitCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())

	for _, f := range []string{
		"modelflow.yaml",
		".gitignore",
		"sources.yaml",
		filepath.Join("seeds", "raw_orders.csv"),
		filepath.Join("nodes", "staging", "stg_orders.sql"),
		filepath.Join("nodes", "marts", "fct_orders.sql"),
	} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected %s to exist", f)
	}

	assert.Contains(t, buf.String(), "Project initialized")
}

func TestInitCommand_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "modelflow.yaml"), []byte("target: dev\n"), 0o644))

	cmd := NewInitCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{dir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitCommand_ForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "modelflow.yaml"), []byte("stale\n"), 0o644))

	cmd := NewInitCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{dir, "--force"})
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile(filepath.Join(dir, "modelflow.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "nodes_dir")
}
