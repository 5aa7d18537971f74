package coordinator

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vk/gridci/internal/runner"
)

// Report is the aggregate outcome of a whole run: every job's terminal
// result in matrix declaration order.
type Report struct {
	RunID   string              `yaml:"run_id,omitempty"`
	Started time.Time           `yaml:"started"`
	Elapsed time.Duration       `yaml:"elapsed"`
	Jobs    []*runner.RunResult `yaml:"jobs"`
}

// FailedJobs returns the identities of jobs that reached the failed
// state, in declaration order.
func (r *Report) FailedJobs() []string {
	var ids []string
	for _, job := range r.Jobs {
		if job.State == runner.StateFailed {
			ids = append(ids, job.JobID)
		}
	}
	return ids
}

// CancelledJobs returns the identities of jobs the run never dispatched.
func (r *Report) CancelledJobs() []string {
	var ids []string
	for _, job := range r.Jobs {
		if job.State == runner.StateCancelled {
			ids = append(ids, job.JobID)
		}
	}
	return ids
}

// Succeeded reports whether every job that was fully exercised reached
// the succeeded state. Cancelled jobs were never exercised and do not
// count against the aggregate; the caller reports cancellation itself.
func (r *Report) Succeeded() bool {
	return len(r.FailedJobs()) == 0
}

// Render writes the human-readable run report: one line per job, and for
// failing jobs the first failing step with its raw diagnostic output
// verbatim.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "run %s: %d jobs in %s\n", r.RunID, len(r.Jobs), r.Elapsed.Round(time.Millisecond))
	for _, job := range r.Jobs {
		fmt.Fprintf(w, "  %-40s %s\n", job.JobID, job.State)
		if job.State != runner.StateFailed {
			continue
		}
		if failure := job.FirstFailure(); failure != nil {
			fmt.Fprintf(w, "    first failure: step %q (%s): %s\n", failure.Step, failure.Capability, failure.Error)
			if out := strings.TrimRight(failure.Output, "\n"); out != "" {
				for _, line := range strings.Split(out, "\n") {
					fmt.Fprintf(w, "      %s\n", line)
				}
			}
		}
	}
}
