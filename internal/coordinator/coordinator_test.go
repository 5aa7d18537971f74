package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/matrix"
	"github.com/vk/gridci/internal/registry"
	"github.com/vk/gridci/internal/runner"
	"github.com/zclconf/go-cty/cty"
)

func expandJobs(t *testing.T, variantIDs ...string) []*matrix.Job {
	t.Helper()
	axis := &config.Axis{Name: "platform"}
	for _, id := range variantIDs {
		axis.Variants = append(axis.Variants, &config.Variant{
			ID:         id,
			Attributes: map[string]cty.Value{"name": cty.StringVal(id)},
		})
	}
	jobs, err := matrix.Expand(context.Background(), &config.Model{Axes: []*config.Axis{axis}})
	require.NoError(t, err)
	return jobs
}

// failOn registers a single capability that fails for the given job id.
func failOn(reg *registry.Registry, jobID string, block <-chan struct{}) {
	reg.RegisterHandler("stub", &registry.Handler{
		NewInput: func() any { return nil },
		Fn: func(ctx context.Context, inv *registry.Invocation, input any) (string, error) {
			if block != nil {
				<-block
			}
			if inv.JobID == jobID {
				return "boom", errors.New("injected failure")
			}
			return "", nil
		},
	})
}

func newStepRunner(t *testing.T, reg *registry.Registry) *runner.StepRunner {
	t.Helper()
	tmp := t.TempDir()
	steps := []*config.Step{
		{Name: "build", Capability: "stub"},
		{Name: "test", Capability: "stub"},
	}
	return runner.New(steps, nil, reg, tmp, tmp, time.Minute)
}

func TestRun_FailureIsolation(t *testing.T) {
	jobs := expandJobs(t, "linux", "macos", "windows", "freebsd")

	reg := registry.New()
	failOn(reg, "macos", nil)

	report := New(newStepRunner(t, reg), 4).Run(context.Background(), jobs)

	require.Len(t, report.Jobs, 4)
	assert.Equal(t, []string{"macos"}, report.FailedJobs())
	assert.False(t, report.Succeeded())

	// The injected failure leaves every sibling's result untouched.
	for _, job := range report.Jobs {
		if job.JobID == "macos" {
			assert.Equal(t, runner.StateFailed, job.State)
			continue
		}
		assert.Equal(t, runner.StateSucceeded, job.State, "sibling %s must be unaffected", job.JobID)
		for _, sr := range job.Steps {
			assert.Equal(t, runner.OutcomeSucceeded, sr.Outcome)
		}
	}
}

func TestRun_SequentialMatchesParallel(t *testing.T) {
	jobs := expandJobs(t, "a", "b", "c", "d", "e")

	regSeq := registry.New()
	failOn(regSeq, "c", nil)
	sequential := New(newStepRunner(t, regSeq), 1).Run(context.Background(), jobs)

	regPar := registry.New()
	failOn(regPar, "c", nil)
	parallel := New(newStepRunner(t, regPar), 4).Run(context.Background(), jobs)

	require.Len(t, parallel.Jobs, len(sequential.Jobs))
	for i := range sequential.Jobs {
		assert.Equal(t, sequential.Jobs[i].JobID, parallel.Jobs[i].JobID)
		assert.Equal(t, sequential.Jobs[i].State, parallel.Jobs[i].State)
		require.Len(t, parallel.Jobs[i].Steps, len(sequential.Jobs[i].Steps))
		for s := range sequential.Jobs[i].Steps {
			assert.Equal(t, sequential.Jobs[i].Steps[s].Outcome, parallel.Jobs[i].Steps[s].Outcome)
		}
	}
}

func TestRun_ResultsInDeclarationOrder(t *testing.T) {
	jobs := expandJobs(t, "a", "b", "c", "d")
	reg := registry.New()
	failOn(reg, "", nil)

	report := New(newStepRunner(t, reg), 3).Run(context.Background(), jobs)

	require.Len(t, report.Jobs, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, id, report.Jobs[i].JobID)
	}
}

func TestRun_CancellationStopsDispatchDrainsInFlight(t *testing.T) {
	jobs := expandJobs(t, "a", "b", "c", "d")

	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var ran atomic.Int32

	reg := registry.New()
	reg.RegisterHandler("stub", &registry.Handler{
		NewInput: func() any { return nil },
		Fn: func(ctx context.Context, inv *registry.Invocation, input any) (string, error) {
			if inv.Step == "build" {
				started <- struct{}{}
				<-release
			}
			ran.Add(1)
			return "", nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	coord := New(newStepRunner(t, reg), 2)

	done := make(chan *Report, 1)
	go func() { done <- coord.Run(ctx, jobs) }()

	// Wait until both workers hold an in-flight job, then cancel. The
	// dispatcher gets a moment to observe cancellation before the
	// workers are released, so no third job is handed out.
	<-started
	<-started
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	report := <-done
	require.Len(t, report.Jobs, 4)

	var completed, cancelled int
	for _, job := range report.Jobs {
		switch job.State {
		case runner.StateSucceeded:
			completed++
			// Drained jobs ran every step to a clean terminal state.
			for _, sr := range job.Steps {
				assert.Equal(t, runner.OutcomeSucceeded, sr.Outcome)
			}
		case runner.StateCancelled:
			cancelled++
			assert.Empty(t, job.Steps)
		default:
			t.Fatalf("unexpected state %s for job %s", job.State, job.JobID)
		}
	}
	assert.Equal(t, 2, completed)
	assert.Equal(t, 2, cancelled)
	assert.Equal(t, []string(nil), report.FailedJobs())
}

func TestSnapshot(t *testing.T) {
	jobs := expandJobs(t, "linux", "macos")
	reg := registry.New()
	failOn(reg, "", nil)
	coord := New(newStepRunner(t, reg), 2)

	report := coord.Run(context.Background(), jobs)
	require.True(t, report.Succeeded())

	snapshot := coord.Snapshot()
	assert.Equal(t, map[string]string{
		"linux": "succeeded",
		"macos": "succeeded",
	}, snapshot)
}
