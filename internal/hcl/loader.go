package hcl

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every .hcl file under the given paths, decodes them, and
// translates the merged result into the config model. Files merge in
// sorted path order; axes, steps, and exclusions append in that order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		found, err := findMatrixFiles(path)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl matrix files found in %v", paths)
	}
	logger.Debug("Discovered matrix files.", "count", len(files))

	parser := hclparse.NewParser()
	merged := &matrixFile{}
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %s", file, diags.Error())
		}

		var parsed matrixFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &parsed); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %s", file, diags.Error())
		}

		merged.Constants = append(merged.Constants, parsed.Constants...)
		merged.Axes = append(merged.Axes, parsed.Axes...)
		merged.Excludes = append(merged.Excludes, parsed.Excludes...)
		merged.Steps = append(merged.Steps, parsed.Steps...)
	}

	return l.translate(ctx, merged)
}

// findMatrixFiles resolves a path to the list of .hcl files it names: a
// file is returned as-is, a directory is walked recursively with results
// sorted for deterministic merge order.
func findMatrixFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("matrix path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".hcl") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking matrix directory %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}
