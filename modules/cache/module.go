// Package cache provides the advisory build-cache capability. Entries
// are keyed by the declaration (typically toolchain and target), so
// concurrent jobs with different keys never contend, and a miss is a
// normal outcome rather than an error.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the cache capability.
type Input struct {
	// Action is "restore" or "save". Required.
	Action string `grid:"action"`

	// Path is the directory to cache, relative to the job workspace.
	// Required.
	Path string `grid:"path"`

	// Key identifies the cache entry. Required; jobs sharing a key share
	// the entry.
	Key string `grid:"key"`
}

// Run restores or saves a cache entry. Restore on a missing key reports
// a miss and succeeds; save overwrites any previous entry for the key.
func Run(ctx context.Context, inv *registry.Invocation, input any) (string, error) {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("job", inv.JobID, "step", inv.Step)

	if in.Path == "" || in.Key == "" {
		return "", errors.New("cache: path and key are required")
	}

	local := filepath.Join(inv.WorkDir, in.Path)
	entry := filepath.Join(inv.CacheDir, keyDirName(in.Key))

	switch in.Action {
	case "restore":
		if _, err := os.Stat(entry); os.IsNotExist(err) {
			logger.Debug("Cache miss.", "key", in.Key)
			return fmt.Sprintf("cache miss for key %q\n", in.Key), nil
		}
		if err := copyDir(entry, local); err != nil {
			return "", fmt.Errorf("cache: restoring %q: %w", in.Key, err)
		}
		logger.Debug("Cache restored.", "key", in.Key, "path", local)
		return fmt.Sprintf("restored cache %q into %s\n", in.Key, in.Path), nil

	case "save":
		if _, err := os.Stat(local); os.IsNotExist(err) {
			// Nothing was produced at the cached path; skip quietly so a
			// failed-but-isolated build step does not also fail the save.
			return fmt.Sprintf("nothing to cache at %s\n", in.Path), nil
		}
		if err := os.RemoveAll(entry); err != nil {
			return "", fmt.Errorf("cache: clearing old entry %q: %w", in.Key, err)
		}
		if err := copyDir(local, entry); err != nil {
			return "", fmt.Errorf("cache: saving %q: %w", in.Key, err)
		}
		logger.Debug("Cache saved.", "key", in.Key, "path", local)
		return fmt.Sprintf("saved %s as cache %q\n", in.Path, in.Key), nil

	default:
		return "", fmt.Errorf("cache: unknown action %q", in.Action)
	}
}

// keyDirName flattens a cache key into a single path element.
func keyDirName(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, key)
}

// copyDir recursively copies src into dst, preserving file modes.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}

// Register registers the capability with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("cache", &registry.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
