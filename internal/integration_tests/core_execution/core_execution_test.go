package core_execution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridci/internal/runner"
	"github.com/vk/gridci/internal/testutil"
)

// releaseMatrix mirrors a cross-compilation release pipeline: two
// platforms by two toolchains, with guards routing platform-specific and
// toolchain-specific steps.
const releaseMatrix = `
constants {
  project = "wormhole"
}

axis "platform" {
  variant "linux-musl" {
    attributes = {
      family     = "linux"
      skip_tests = false
    }
  }
  variant "freebsd" {
    attributes = {
      family     = "freebsd"
      skip_tests = true
    }
  }
}

axis "toolchain" {
  variant "stable" {}
  variant "nightly" {}
}

step "install-musl" {
  capability = "exec"
  guard      = job.platform == "linux-musl"
}

step "build" {
  capability = "exec"
}

step "test" {
  capability = "exec"
  guard      = !job.skip_tests
}

step "package" {
  capability = "archive"
  guard      = job.toolchain == "stable"
}
`

func TestMatrixRun_GuardsRouteStepsPerJob(t *testing.T) {
	stub := testutil.NewStubModule("exec", "archive")
	result := testutil.RunMatrix(t, releaseMatrix, stub)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Report)
	require.Len(t, result.Report.Jobs, 4)

	// Every job ran build; install-musl ran on the musl platform only.
	for _, jobID := range []string{
		"linux-musl/stable", "linux-musl/nightly", "freebsd/stable", "freebsd/nightly",
	} {
		assert.True(t, stub.Executed(jobID, "build"), "build should run for %s", jobID)
	}
	assert.True(t, stub.Executed("linux-musl/stable", "install-musl"))
	assert.True(t, stub.Executed("linux-musl/nightly", "install-musl"))
	assert.False(t, stub.Executed("freebsd/stable", "install-musl"))
	assert.False(t, stub.Executed("freebsd/nightly", "install-musl"))

	// Tests are skipped where the platform says so.
	assert.True(t, stub.Executed("linux-musl/stable", "test"))
	assert.False(t, stub.Executed("freebsd/stable", "test"))

	// Packaging is a stable-toolchain concern.
	assert.True(t, stub.Executed("linux-musl/stable", "package"))
	assert.False(t, stub.Executed("linux-musl/nightly", "package"))

	job := testutil.JobResult(t, result, "freebsd/nightly")
	assert.Equal(t, runner.StateSucceeded, job.State)
	assert.Equal(t, runner.SkipGuardFalse, testutil.StepOutcome(t, job, "install-musl").Reason)
	assert.Equal(t, runner.SkipGuardFalse, testutil.StepOutcome(t, job, "test").Reason)
	assert.Equal(t, runner.SkipGuardFalse, testutil.StepOutcome(t, job, "package").Reason)
	assert.Equal(t, runner.OutcomeSucceeded, testutil.StepOutcome(t, job, "build").Outcome)
}

func TestMatrixRun_ExclusionRemovesJob(t *testing.T) {
	stub := testutil.NewStubModule("exec", "archive")
	result := testutil.RunMatrix(t, releaseMatrix+`
exclude {
  when = job.platform == "freebsd" && job.toolchain == "nightly"
}
`, stub)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Report)
	require.Len(t, result.Report.Jobs, 3)

	for _, job := range result.Report.Jobs {
		assert.NotEqual(t, "freebsd/nightly", job.JobID)
	}
	assert.False(t, stub.Executed("freebsd/nightly", "build"))
}

func TestMatrixRun_StepOrderIsDeclarationOrder(t *testing.T) {
	stub := testutil.NewStubModule("exec", "archive")
	result := testutil.RunMatrix(t, releaseMatrix, stub)
	require.NoError(t, result.Err)

	job := testutil.JobResult(t, result, "linux-musl/stable")
	var names []string
	for _, sr := range job.Steps {
		names = append(names, sr.Step)
	}
	assert.Equal(t, []string{"install-musl", "build", "test", "package"}, names)
}

func TestMatrixRun_ReportAndLogsCarryRunSummary(t *testing.T) {
	stub := testutil.NewStubModule("exec", "archive")
	result := testutil.RunMatrix(t, releaseMatrix, stub)
	require.NoError(t, result.Err)

	require.NotNil(t, result.Report)
	assert.NotEmpty(t, result.Report.RunID)
	assert.Contains(t, result.LogOutput, "🧮 Matrix expanded.")
	assert.Contains(t, result.LogOutput, "🏁 Run finished.")
}
