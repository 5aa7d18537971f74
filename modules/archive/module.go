// Package archive provides the packaging capability: it locates the
// job's built binary and wraps it into the release archive named by the
// job's attributes, in the format resolved from the job's OS family.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/gridci/internal/archive"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the archive capability.
type Input struct {
	// Binary is the built binary's path relative to the job workspace.
	// Required.
	Binary string `grid:"binary"`

	// Archive is the base name of the archive to produce (the format
	// extension is appended). Required.
	Archive string `grid:"archive"`

	// Family is the job's OS family, which selects the format. Required.
	Family string `grid:"family"`
}

// DistDir is the workspace subdirectory archives are written to.
const DistDir = "dist"

// Run packages the binary. A missing binary is a *archive.PackagingError
// — terminal for this job's packaging step, invisible to siblings.
func Run(ctx context.Context, inv *registry.Invocation, input any) (string, error) {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("job", inv.JobID, "step", inv.Step)

	if in.Binary == "" || in.Archive == "" || in.Family == "" {
		return "", errors.New("archive: binary, archive, and family are required")
	}

	format := archive.FormatForFamily(in.Family)
	binaryPath := filepath.Join(inv.WorkDir, in.Binary)
	distDir := filepath.Join(inv.WorkDir, DistDir)
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return "", fmt.Errorf("archive: creating %s: %w", distDir, err)
	}
	dstPath := filepath.Join(distDir, in.Archive+"."+format.Extension())

	logger.Debug("Packaging binary.", "binary", binaryPath, "archive", dstPath, "format", format.String())
	if err := archive.Write(dstPath, binaryPath, format); err != nil {
		return "", err
	}
	return fmt.Sprintf("packaged %s as %s\n", in.Binary, dstPath), nil
}

// Register registers the capability with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("archive", &registry.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
