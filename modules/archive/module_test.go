package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	archivefmt "github.com/vk/gridci/internal/archive"
	"github.com/vk/gridci/internal/registry"
)

func invocation(t *testing.T) *registry.Invocation {
	t.Helper()
	return &registry.Invocation{
		JobID:   "linux/stable",
		Step:    "package",
		WorkDir: t.TempDir(),
	}
}

func TestRun_PackagesLinuxBinaryAsTarGz(t *testing.T) {
	inv := invocation(t)
	binary := filepath.Join(inv.WorkDir, "target", "release", "wormhole")
	require.NoError(t, os.MkdirAll(filepath.Dir(binary), 0o755))
	require.NoError(t, os.WriteFile(binary, []byte("ELF"), 0o755))

	out, err := Run(context.Background(), inv, &Input{
		Binary:  "target/release/wormhole",
		Archive: "wormhole-linux-x86_64-musl",
		Family:  "linux",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "packaged target/release/wormhole")
	assert.FileExists(t, filepath.Join(inv.WorkDir, DistDir, "wormhole-linux-x86_64-musl.tar.gz"))
}

func TestRun_PackagesWindowsBinaryAsZip(t *testing.T) {
	inv := invocation(t)
	binary := filepath.Join(inv.WorkDir, "wormhole.exe")
	require.NoError(t, os.WriteFile(binary, []byte("MZ"), 0o755))

	_, err := Run(context.Background(), inv, &Input{
		Binary:  "wormhole.exe",
		Archive: "wormhole-windows-x86_64",
		Family:  "windows",
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(inv.WorkDir, DistDir, "wormhole-windows-x86_64.zip"))
}

func TestRun_MissingBinaryIsPackagingError(t *testing.T) {
	_, err := Run(context.Background(), invocation(t), &Input{
		Binary:  "target/release/wormhole",
		Archive: "wormhole-linux",
		Family:  "linux",
	})
	require.Error(t, err)

	var pkgErr *archivefmt.PackagingError
	require.ErrorAs(t, err, &pkgErr)
	assert.Contains(t, pkgErr.Binary, "wormhole")
}

func TestRun_Validation(t *testing.T) {
	_, err := Run(context.Background(), invocation(t), &Input{Binary: "wormhole"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binary, archive, and family are required")
}
