package testutil

import (
	"context"
	"sync"

	"github.com/vk/gridci/internal/registry"
)

// StubCall records one capability invocation made through a StubModule.
type StubCall struct {
	Capability string
	JobID      string
	Step       string
}

// StubModule registers no-op capabilities under the given names and
// records every invocation, so tests can assert exactly which steps
// executed for which jobs. An optional Fail hook injects failures.
type StubModule struct {
	capabilities []string

	// Fail, when set, is consulted per invocation; a non-nil return
	// fails that step.
	Fail func(inv *registry.Invocation) error

	mu    sync.Mutex
	calls []StubCall
}

// NewStubModule creates a StubModule covering the given capability names.
func NewStubModule(capabilities ...string) *StubModule {
	return &StubModule{capabilities: capabilities}
}

// Register registers a recording handler for each capability.
func (m *StubModule) Register(r *registry.Registry) {
	for _, name := range m.capabilities {
		capability := name
		r.RegisterHandler(capability, &registry.Handler{
			NewInput: func() any { return nil },
			Fn: func(ctx context.Context, inv *registry.Invocation, input any) (string, error) {
				m.mu.Lock()
				m.calls = append(m.calls, StubCall{Capability: capability, JobID: inv.JobID, Step: inv.Step})
				m.mu.Unlock()
				if m.Fail != nil {
					if err := m.Fail(inv); err != nil {
						return "injected output", err
					}
				}
				return "", nil
			},
		})
	}
}

// Calls returns a copy of every recorded invocation.
func (m *StubModule) Calls() []StubCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StubCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Executed reports whether the named step was invoked for the job.
func (m *StubModule) Executed(jobID, step string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.calls {
		if call.JobID == jobID && call.Step == step {
			return true
		}
	}
	return false
}
