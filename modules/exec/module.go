// Package exec provides the capability that runs a step's command as an
// external process inside the job's working directory.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the exec capability.
type Input struct {
	// Command is the argv to execute. Required.
	Command []string `grid:"command"`

	// Dir is a working directory relative to the job workspace.
	// Optional; defaults to the workspace root.
	Dir string `grid:"dir"`

	// Env appends KEY=VALUE pairs to the inherited environment.
	Env []string `grid:"env"`
}

// Run executes the command, capturing combined stdout/stderr. The
// context carries the per-step timeout; a nonzero exit or a timeout is
// the step's failure signal, with the captured output returned either
// way so diagnostics survive verbatim.
func Run(ctx context.Context, inv *registry.Invocation, input any) (string, error) {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("job", inv.JobID, "step", inv.Step)

	if len(in.Command) == 0 {
		return "", errors.New("exec: command is required")
	}

	dir := inv.WorkDir
	if in.Dir != "" {
		dir = filepath.Join(inv.WorkDir, in.Dir)
	}

	cmd := exec.CommandContext(ctx, in.Command[0], in.Command[1:]...)
	cmd.Dir = dir
	if len(in.Env) > 0 {
		cmd.Env = append(os.Environ(), in.Env...)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Debug("Running command.", "argv", in.Command, "dir", dir)
	err := cmd.Run()
	if ctx.Err() != nil {
		return out.String(), fmt.Errorf("exec: command timed out: %w", ctx.Err())
	}
	if err != nil {
		return out.String(), fmt.Errorf("exec: %s: %w", in.Command[0], err)
	}
	return out.String(), nil
}

// Register registers the capability with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("exec", &registry.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
