package runner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/guard"
	"github.com/vk/gridci/internal/matrix"
	"github.com/vk/gridci/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// StepRunner executes the shared pipeline template for individual jobs.
// One instance serves the whole run; per-job state lives in the job
// descriptor and the job's working directory.
type StepRunner struct {
	steps          []*config.Step
	constants      map[string]cty.Value
	registry       *registry.Registry
	workRoot       string
	cacheDir       string
	defaultTimeout time.Duration
}

// New creates a StepRunner for the given pipeline template. workRoot is
// the directory under which each job gets an isolated working directory;
// cacheDir is the shared advisory cache root.
func New(steps []*config.Step, constants map[string]cty.Value, reg *registry.Registry, workRoot, cacheDir string, defaultTimeout time.Duration) *StepRunner {
	return &StepRunner{
		steps:          steps,
		constants:      constants,
		registry:       reg,
		workRoot:       workRoot,
		cacheDir:       cacheDir,
		defaultTimeout: defaultTimeout,
	}
}

// Run executes the pipeline for one job and returns its terminal result.
// It never returns an error: every failure mode is recorded in the
// result, keeping one job's faults invisible to its siblings.
func (r *StepRunner) Run(ctx context.Context, job *matrix.Job) *RunResult {
	logger := ctxlog.FromContext(ctx).With("job", job.ID())
	result := &RunResult{JobID: job.ID(), State: StateSucceeded}
	evalCtx := job.EvalContext(r.constants)

	workDir := filepath.Join(r.workRoot, jobDirName(job.ID()))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		logger.Error("Failed to create job working directory.", "dir", workDir, "error", err)
		result.State = StateFailed
		result.Steps = append(result.Steps, StepResult{
			Step:    "workspace",
			Outcome: OutcomeFailed,
			Error:   err.Error(),
		})
		for _, step := range r.steps {
			result.Steps = append(result.Steps, skipped(step, SkipAfterFailure))
		}
		return result
	}

	failed := false
	for _, step := range r.steps {
		if failed {
			result.Steps = append(result.Steps, skipped(step, SkipAfterFailure))
			continue
		}

		ok, err := guard.Evaluate(step.Guard, evalCtx)
		if err != nil {
			// Fail closed: one malformed guard must not abort the job,
			// let alone the run. The diagnostic is surfaced verbatim.
			logger.Warn("Guard failed to evaluate; failing closed.", "step", step.Name, "error", err)
			sr := skipped(step, SkipGuardError)
			sr.Error = err.Error()
			result.Steps = append(result.Steps, sr)
			continue
		}
		if !ok {
			logger.Debug("Guard is false, skipping step.", "step", step.Name)
			result.Steps = append(result.Steps, skipped(step, SkipGuardFalse))
			continue
		}

		sr := r.runStep(ctx, logger, job, step, evalCtx, workDir)
		result.Steps = append(result.Steps, sr)
		if sr.Outcome == OutcomeFailed {
			failed = true
			result.State = StateFailed
		}
	}
	return result
}

// runStep dispatches a single guarded-true step to its capability and
// records the outcome.
func (r *StepRunner) runStep(ctx context.Context, logger *slog.Logger, job *matrix.Job, step *config.Step, evalCtx *hcl.EvalContext, workDir string) StepResult {
	sr := StepResult{Step: step.Name, Capability: step.Capability}

	handler, ok := r.registry.Handler(step.Capability)
	if !ok {
		// Registry validation at startup makes this unreachable for a
		// loaded declaration; guard against programmer error anyway.
		sr.Outcome = OutcomeFailed
		sr.Error = "capability not registered: " + step.Capability
		return sr
	}

	input := handler.NewInput()
	if input != nil {
		if err := decodeArguments(input, step.Arguments, evalCtx); err != nil {
			sr.Outcome = OutcomeFailed
			sr.Error = err.Error()
			logger.Error("Step argument decoding failed.", "step", step.Name, "error", err)
			return sr
		}
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	inv := &registry.Invocation{
		JobID:    job.ID(),
		Step:     step.Name,
		WorkDir:  workDir,
		CacheDir: r.cacheDir,
	}

	logger.Info("▶️ Starting step.", "step", step.Name, "capability", step.Capability)
	start := time.Now()
	output, err := handler.Fn(stepCtx, inv, input)
	sr.Duration = time.Since(start)
	sr.Output = output

	if err != nil {
		sr.Outcome = OutcomeFailed
		sr.Error = err.Error()
		logger.Error("❌ Step failed.", "step", step.Name, "duration", sr.Duration, "error", err)
		return sr
	}

	sr.Outcome = OutcomeSucceeded
	logger.Info("✅ Step finished.", "step", step.Name, "duration", sr.Duration)
	return sr
}

func skipped(step *config.Step, reason SkipReason) StepResult {
	return StepResult{
		Step:       step.Name,
		Capability: step.Capability,
		Outcome:    OutcomeSkipped,
		Reason:     reason,
	}
}

// jobDirName flattens a job identity into a single path element.
func jobDirName(jobID string) string {
	return strings.ReplaceAll(jobID, "/", "-")
}
