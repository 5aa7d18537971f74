package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridci/internal/app"
	"github.com/vk/gridci/internal/coordinator"
	"github.com/vk/gridci/internal/hcl"
	"github.com/vk/gridci/internal/registry"
	"github.com/vk/gridci/internal/runner"
	"gopkg.in/yaml.v3"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Report    *coordinator.Report
}

// RunMatrix provides a standardized harness for integration tests: it
// writes the matrix declaration to a temp dir, runs the full app against
// it with the provided capability modules, and loads back the YAML run
// report.
func RunMatrix(t *testing.T, matrixHCL string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunMatrixWithContext(context.Background(), t, matrixHCL, modules...)
}

// RunMatrixWithContext is RunMatrix with a caller-provided context, for
// cancellation tests.
func RunMatrixWithContext(ctx context.Context, t *testing.T, matrixHCL string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	matrixPath := filepath.Join(tmpDir, "matrix.hcl")
	require.NoError(t, os.WriteFile(matrixPath, []byte(matrixHCL), 0o644))
	reportPath := filepath.Join(tmpDir, "report.yaml")

	cfg, err := app.NewConfig(app.Config{
		MatrixPath:  matrixPath,
		WorkDir:     filepath.Join(tmpDir, "work"),
		ReportPath:  reportPath,
		LogLevel:    "debug",
		LogFormat:   "text",
		Workers:     4,
		StepTimeout: time.Minute,
	})
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, cfg, hcl.NewLoader(), modules...)
	}()
	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(ctx)

	result := &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
	if data, err := os.ReadFile(reportPath); err == nil {
		var report coordinator.Report
		require.NoError(t, yaml.Unmarshal(data, &report))
		result.Report = &report
	}
	return result
}

// JobResult returns the named job's entry from the run report, failing
// the test if it is absent.
func JobResult(t *testing.T, result *HarnessResult, jobID string) *runner.RunResult {
	t.Helper()
	require.NotNil(t, result.Report, "run produced no report")
	for _, job := range result.Report.Jobs {
		if job.JobID == jobID {
			return job
		}
	}
	t.Fatalf("job %q not present in report", jobID)
	return nil
}

// StepOutcome returns the named step's entry from a job result, failing
// the test if it is absent.
func StepOutcome(t *testing.T, job *runner.RunResult, step string) runner.StepResult {
	t.Helper()
	for _, sr := range job.Steps {
		if sr.Step == step {
			return sr
		}
	}
	t.Fatalf("step %q not present in result for job %q", step, job.JobID)
	return runner.StepResult{}
}
