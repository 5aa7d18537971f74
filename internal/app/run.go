package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/gridci/internal/coordinator"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/guard"
	"github.com/vk/gridci/internal/matrix"
	"github.com/vk/gridci/internal/runner"
)

// Run executes one full run of the matrix: expand, coordinate, report.
// The returned error is the aggregate exit condition — non-nil when any
// fully-exercised job failed (with the failing identities enumerated) or
// when the run was cancelled before every job was dispatched.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	jobs, err := matrix.Expand(ctx, a.model)
	if err != nil {
		return fmt.Errorf("failed to expand matrix: %w", err)
	}
	a.logger.Info("🧮 Matrix expanded.", "jobs", len(jobs))
	if len(jobs) == 0 {
		a.logger.Warn("Matrix expanded to zero jobs, nothing to run.")
		return nil
	}

	if a.config.DryRun {
		return a.plan(jobs)
	}

	runID := uuid.NewString()
	workRoot := filepath.Join(a.config.WorkDir, runID)
	stepRunner := runner.New(a.model.Steps, a.model.Constants, a.registry,
		workRoot, a.config.CacheDir, a.config.StepTimeout)
	coord := coordinator.New(stepRunner, a.config.Workers)

	if a.config.StatusPort > 0 {
		a.startStatusServer(a.config.StatusPort, coord)
	}

	a.logger.Info("🚀 Starting matrix run.", "run", runID, "jobs", len(jobs), "workers", a.config.Workers)
	report := coord.Run(ctx, jobs)
	report.RunID = runID
	a.logger.Info("🏁 Run finished.", "run", runID, "elapsed", report.Elapsed)

	report.Render(a.outW)
	if a.config.ReportPath != "" {
		if err := a.writeReport(report); err != nil {
			return err
		}
	}

	if failed := report.FailedJobs(); len(failed) > 0 {
		return fmt.Errorf("%d of %d jobs failed: %s", len(failed), len(jobs), strings.Join(failed, ", "))
	}
	if cancelled := report.CancelledJobs(); len(cancelled) > 0 {
		return fmt.Errorf("run cancelled before %d of %d jobs were dispatched", len(cancelled), len(jobs))
	}
	return nil
}

// plan prints the guard-resolved pipeline for every job without invoking
// any capability. Guard evaluation errors fail closed here too, so a dry
// run previews exactly what a real run would execute.
func (a *App) plan(jobs []*matrix.Job) error {
	fmt.Fprintf(a.outW, "matrix plan: %d jobs\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(a.outW, "  %s\n", job.ID())
		evalCtx := job.EvalContext(a.model.Constants)
		for _, step := range a.model.Steps {
			ok, err := guard.Evaluate(step.Guard, evalCtx)
			switch {
			case err != nil:
				fmt.Fprintf(a.outW, "    skip %-24s (guard error: %s)\n", step.Name, err)
			case !ok:
				fmt.Fprintf(a.outW, "    skip %-24s\n", step.Name)
			default:
				fmt.Fprintf(a.outW, "    run  %-24s (%s)\n", step.Name, step.Capability)
			}
		}
	}
	return nil
}
