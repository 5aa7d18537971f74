package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/gridci/internal/config"
)

// Invocation carries the per-job environment a capability executes in.
// It replaces the ambient state of a hosted runner (working directory,
// cache location) with explicit values threaded into every handler.
type Invocation struct {
	JobID    string
	Step     string
	WorkDir  string
	CacheDir string
}

// Handler is a registered capability implementation. NewInput returns a
// fresh input struct for the step runner to decode the step's evaluated
// arguments into; Fn performs the work and returns captured output for
// the run result.
type Handler struct {
	NewInput func() any
	Fn       func(ctx context.Context, inv *Invocation, input any) (string, error)
}

// Module is the interface capability modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the capability handlers for a single engine instance.
type Registry struct {
	handlers map[string]*Handler
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{handlers: make(map[string]*Handler)}
}

// RegisterHandler registers a capability handler under its name. A
// duplicate registration is a programmer error and panics at startup.
func (r *Registry) RegisterHandler(name string, h *Handler) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("capability %q registered twice", name))
	}
	r.handlers[name] = h
}

// Handler looks up a capability handler by name.
func (r *Registry) Handler(name string) (*Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Capabilities returns the registered capability names, sorted.
func (r *Registry) Capabilities() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every step in the pipeline names a registered
// capability. A mismatch between declaration and code is caught here,
// before any job is dispatched.
func (r *Registry) Validate(steps []*config.Step) error {
	for _, step := range steps {
		if _, ok := r.handlers[step.Capability]; !ok {
			return fmt.Errorf("step %q uses unknown capability %q (registered: %v)",
				step.Name, step.Capability, r.Capabilities())
		}
	}
	return nil
}
