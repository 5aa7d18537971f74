package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridci/internal/cli"
)

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "GridCI - a build matrix orchestrator.")
}

func TestRun_HelpFlag(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-h"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_UnknownFlagIsExitError(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"--frobnicate"})
	require.Error(t, err)

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_MissingMatrixIsCleanStartupError(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-m", filepath.Join(t.TempDir(), "nope.hcl")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a critical startup error occurred")
}

func TestRun_UnparsableMatrixIsCleanStartupError(t *testing.T) {
	dir := t.TempDir()
	matrixPath := filepath.Join(dir, "matrix.hcl")
	require.NoError(t, os.WriteFile(matrixPath, []byte(`axis "platform" {`), 0o644))

	var out bytes.Buffer
	err := run(&out, []string{"-m", matrixPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a critical startup error occurred")
	assert.Contains(t, err.Error(), "failed to load matrix declaration")
}

func TestRun_DryRunPrintsPlan(t *testing.T) {
	dir := t.TempDir()
	matrixPath := filepath.Join(dir, "matrix.hcl")
	require.NoError(t, os.WriteFile(matrixPath, []byte(`
axis "platform" {
  variant "linux" {}
  variant "freebsd" {}
}

step "build" {
  capability = "exec"
}

step "package" {
  capability = "archive"
  guard      = job.platform == "linux"
}
`), 0o644))

	var out bytes.Buffer
	err := run(&out, []string{
		"-m", matrixPath,
		"-workdir", filepath.Join(dir, "work"),
		"-dry-run",
		"-log-level", "error",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "matrix plan: 2 jobs")
	assert.Contains(t, out.String(), "linux")
	assert.Contains(t, out.String(), "run  build")
	assert.Contains(t, out.String(), "skip package")
}
