// Package upload provides the publisher capability: it hands a packaged
// archive to the external artifact store under a per-job identity.
// Publishing is idempotent by identity — a PUT to the same key
// overwrites rather than duplicates.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// httpClient is shared across all upload executions to reuse TCP
// connections between jobs publishing to the same store.
var httpClient = &http.Client{}

// PublishError reports the external artifact store rejecting or not
// reaching an upload. It is terminal for this job's publish step only;
// retry policy belongs to the store, not the engine.
type PublishError struct {
	Key   string
	Cause string
}

// Error implements the error interface for PublishError.
func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %q: %s", e.Key, e.Cause)
}

// Input defines the arguments for the upload capability.
type Input struct {
	// Source is the archive path relative to the job workspace.
	// Required.
	Source string `grid:"source"`

	// StoreURL is the base URL of the artifact store. Required.
	StoreURL string `grid:"store_url"`

	// Key is the publish identity under the store. Required; re-publish
	// under the same key overwrites.
	Key string `grid:"key"`
}

// Run uploads the archive via HTTP PUT to <store_url>/<key>.
func Run(ctx context.Context, inv *registry.Invocation, input any) (string, error) {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("job", inv.JobID, "step", inv.Step)

	if in.Source == "" || in.StoreURL == "" || in.Key == "" {
		return "", errors.New("upload: source, store_url, and key are required")
	}

	sourcePath := filepath.Join(inv.WorkDir, in.Source)
	file, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("upload: opening %s: %w", sourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("upload: stat %s: %w", sourcePath, err)
	}

	url := strings.TrimRight(in.StoreURL, "/") + "/" + in.Key
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return "", fmt.Errorf("upload: building request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(in.Source))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Debug("Uploading archive.", "source", sourcePath, "url", url, "size", stat.Size())
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &PublishError{Key: in.Key, Cause: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &PublishError{Key: in.Key, Cause: "store returned " + resp.Status}
	}

	logger.Debug("Upload complete.", "status", resp.Status)
	return fmt.Sprintf("published %s as %s\n", in.Source, in.Key), nil
}

// Register registers the capability with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("upload", &registry.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
