package runner

import "time"

// Outcome is the recorded result of one step for one job.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// SkipReason qualifies a skipped step. A step skipped because its guard
// was false is ordinary control flow; a step skipped because an earlier
// step failed was never considered at all.
type SkipReason string

const (
	SkipGuardFalse   SkipReason = "guard_false"
	SkipGuardError   SkipReason = "guard_error"
	SkipAfterFailure SkipReason = "after_failure"
)

// State is the terminal state of a whole job.
type State string

const (
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"

	// StateCancelled marks a job the coordinator never dispatched because
	// the run was cancelled first. In-flight jobs are drained to
	// succeeded/failed instead.
	StateCancelled State = "cancelled"
)

// StepResult is one entry of a job's ordered outcome log.
type StepResult struct {
	Step       string        `yaml:"step"`
	Capability string        `yaml:"capability"`
	Outcome    Outcome       `yaml:"outcome"`
	Reason     SkipReason    `yaml:"reason,omitempty"`
	Output     string        `yaml:"output,omitempty"`
	Error      string        `yaml:"error,omitempty"`
	Duration   time.Duration `yaml:"duration,omitempty"`
}

// RunResult is the complete per-job record: terminal state plus the
// ordered step outcomes.
type RunResult struct {
	JobID string       `yaml:"job"`
	State State        `yaml:"state"`
	Steps []StepResult `yaml:"steps,omitempty"`
}

// FirstFailure returns the first failed step of the job, or nil if the
// job never failed.
func (r *RunResult) FirstFailure() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Outcome == OutcomeFailed {
			return &r.Steps[i]
		}
	}
	return nil
}
