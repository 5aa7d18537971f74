package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/matrix"
	"github.com/vk/gridci/internal/runner"
)

// Coordinator dispatches expanded jobs to a pool of workers and collects
// their run results. It owns no per-job state beyond a live status map
// for observers; results are written into a slot per job, so completion
// order never affects reporting order.
type Coordinator struct {
	runner  *runner.StepRunner
	workers int

	mu     sync.Mutex
	states map[string]string
}

// Live status values, in addition to the terminal runner states.
const (
	statusPending = "pending"
	statusRunning = "running"
)

// New creates a Coordinator with the given worker count. A count below
// one falls back to sequential execution, which by construction yields
// the same results as any parallel schedule.
func New(r *runner.StepRunner, workers int) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{
		runner:  r,
		workers: workers,
		states:  make(map[string]string),
	}
}

// Snapshot returns a copy of the live per-job states for observers such
// as the status server.
func (c *Coordinator) Snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.states))
	for id, st := range c.states {
		out[id] = st
	}
	return out
}

func (c *Coordinator) setState(jobID, state string) {
	c.mu.Lock()
	c.states[jobID] = state
	c.mu.Unlock()
}

// Run executes every job and returns the aggregate report. The context
// gates dispatch only: once cancelled no further job starts, but jobs
// already handed to a worker run on an uncancellable context so they
// finish cleanly (per-step timeouts still apply). Jobs never dispatched
// are reported in the cancelled state.
func (c *Coordinator) Run(ctx context.Context, jobs []*matrix.Job) *Report {
	logger := ctxlog.FromContext(ctx)
	started := time.Now()

	for _, job := range jobs {
		c.setState(job.ID(), statusPending)
	}

	results := make([]*runner.RunResult, len(jobs))

	type item struct {
		idx int
		job *matrix.Job
	}
	readyChan := make(chan item)

	var wg sync.WaitGroup
	wg.Add(c.workers)
	for w := 0; w < c.workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for it := range readyChan {
				workerLogger := logger.With("workerID", workerID, "job", it.job.ID())
				workerLogger.Debug("Worker picked up job.")
				c.setState(it.job.ID(), statusRunning)

				// Detach from run cancellation so an in-flight job drains
				// to a clean terminal state instead of tearing mid-step.
				res := c.runner.Run(context.WithoutCancel(ctx), it.job)

				results[it.idx] = res
				c.setState(it.job.ID(), string(res.State))
				workerLogger.Debug("Worker finished job.", "state", res.State)
			}
		}(w)
	}

dispatch:
	for i, job := range jobs {
		select {
		case <-ctx.Done():
			logger.Warn("Run cancelled; remaining jobs will not be dispatched.",
				"dispatched", i, "remaining", len(jobs)-i)
			break dispatch
		case readyChan <- item{idx: i, job: job}:
		}
	}
	close(readyChan)
	wg.Wait()

	for i, job := range jobs {
		if results[i] == nil {
			results[i] = &runner.RunResult{JobID: job.ID(), State: runner.StateCancelled}
			c.setState(job.ID(), string(runner.StateCancelled))
		}
	}

	return &Report{
		Started: started,
		Elapsed: time.Since(started),
		Jobs:    results,
	}
}
