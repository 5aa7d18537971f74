// Package checkout provides the capability that fetches the project
// source into the job's working directory via the git CLI.
package checkout

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

// Input defines the arguments for the checkout capability.
type Input struct {
	// URL of the repository to clone. Required.
	URL string `grid:"url"`

	// Ref is an optional branch or tag to check out.
	Ref string `grid:"ref"`

	// Dir is the target directory relative to the job workspace.
	// Optional; defaults to "src".
	Dir string `grid:"dir"`
}

// Run performs a shallow clone into the job workspace. A clone into an
// existing checkout is removed first so re-running a job starts clean.
func Run(ctx context.Context, inv *registry.Invocation, input any) (string, error) {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("job", inv.JobID, "step", inv.Step)

	if in.URL == "" {
		return "", errors.New("checkout: url is required")
	}

	dir := in.Dir
	if dir == "" {
		dir = "src"
	}
	target := filepath.Join(inv.WorkDir, dir)
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("checkout: cleaning %s: %w", target, err)
	}

	args := []string{"clone", "--depth", "1"}
	if in.Ref != "" {
		args = append(args, "--branch", in.Ref)
	}
	args = append(args, in.URL, target)

	cmd := exec.CommandContext(ctx, "git", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Debug("Cloning repository.", "url", in.URL, "ref", in.Ref, "target", target)
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("checkout: git clone %s: %w", in.URL, err)
	}
	return out.String(), nil
}

// Register registers the capability with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("checkout", &registry.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
