package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridci/internal/registry"
)

// store is a minimal in-memory artifact store keyed by request path.
type store struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newStore() *store {
	return &store{objects: map[string][]byte{}}
}

func (s *store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	s.objects[r.URL.Path] = body
	s.puts++
	s.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}

func invocation(t *testing.T) *registry.Invocation {
	t.Helper()
	return &registry.Invocation{
		JobID:   "linux/stable",
		Step:    "upload",
		WorkDir: t.TempDir(),
	}
}

func writeArchive(t *testing.T, inv *registry.Invocation, name, content string) {
	t.Helper()
	path := filepath.Join(inv.WorkDir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRun_PutsArchiveUnderKey(t *testing.T) {
	st := newStore()
	srv := httptest.NewServer(st)
	defer srv.Close()

	inv := invocation(t)
	writeArchive(t, inv, "dist/wormhole-linux.tar.gz", "archive-bytes")

	out, err := Run(context.Background(), inv, &Input{
		Source:   "dist/wormhole-linux.tar.gz",
		StoreURL: srv.URL,
		Key:      "v1.2.3/wormhole-linux.tar.gz",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "published dist/wormhole-linux.tar.gz")
	assert.Equal(t, []byte("archive-bytes"), st.objects["/v1.2.3/wormhole-linux.tar.gz"])
}

func TestRun_RepublishSameKeyOverwrites(t *testing.T) {
	st := newStore()
	srv := httptest.NewServer(st)
	defer srv.Close()

	inv := invocation(t)
	writeArchive(t, inv, "dist/a.tar.gz", "first")
	_, err := Run(context.Background(), inv, &Input{
		Source: "dist/a.tar.gz", StoreURL: srv.URL, Key: "v1/a.tar.gz",
	})
	require.NoError(t, err)

	writeArchive(t, inv, "dist/a.tar.gz", "second")
	_, err = Run(context.Background(), inv, &Input{
		Source: "dist/a.tar.gz", StoreURL: srv.URL, Key: "v1/a.tar.gz",
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("second"), st.objects["/v1/a.tar.gz"])
	assert.Equal(t, 2, st.puts)
	assert.Len(t, st.objects, 1)
}

func TestRun_TrailingSlashInStoreURL(t *testing.T) {
	st := newStore()
	srv := httptest.NewServer(st)
	defer srv.Close()

	inv := invocation(t)
	writeArchive(t, inv, "dist/a.zip", "zip-bytes")
	_, err := Run(context.Background(), inv, &Input{
		Source: "dist/a.zip", StoreURL: srv.URL + "/", Key: "a.zip",
	})
	require.NoError(t, err)
	assert.Contains(t, st.objects, "/a.zip")
}

func TestRun_StoreRejectionIsPublishError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	inv := invocation(t)
	writeArchive(t, inv, "dist/a.tar.gz", "bytes")
	_, err := Run(context.Background(), inv, &Input{
		Source: "dist/a.tar.gz", StoreURL: srv.URL, Key: "a.tar.gz",
	})
	require.Error(t, err)

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "a.tar.gz", pubErr.Key)
	assert.Contains(t, pubErr.Cause, "403")
}

func TestRun_UnreachableStoreIsPublishError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	inv := invocation(t)
	writeArchive(t, inv, "dist/a.tar.gz", "bytes")
	_, err := Run(context.Background(), inv, &Input{
		Source: "dist/a.tar.gz", StoreURL: srv.URL, Key: "a.tar.gz",
	})
	require.Error(t, err)

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
}

func TestRun_MissingSourceIsNotPublishError(t *testing.T) {
	_, err := Run(context.Background(), invocation(t), &Input{
		Source: "dist/missing.tar.gz", StoreURL: "http://127.0.0.1:1", Key: "k",
	})
	require.Error(t, err)

	var pubErr *PublishError
	assert.False(t, errors.As(err, &pubErr))
	assert.Contains(t, err.Error(), "opening")
}

func TestRun_Validation(t *testing.T) {
	_, err := Run(context.Background(), invocation(t), &Input{Source: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source, store_url, and key are required")
}
