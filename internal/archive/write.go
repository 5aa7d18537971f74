package archive

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// PackagingError reports a declared binary missing from the build
// output. It is terminal for the job's packaging step only.
type PackagingError struct {
	Binary string
	Dir    string
}

// Error implements the error interface for PackagingError.
func (e *PackagingError) Error() string {
	return fmt.Sprintf("packaging: binary %q not found under %s", e.Binary, e.Dir)
}

// Write wraps the binary at binaryPath into an archive at dstPath using
// the given format. The archive contains the binary as a single
// executable entry named by its base name. A missing binary returns a
// *PackagingError.
func Write(dstPath, binaryPath string, format Format) error {
	info, err := os.Stat(binaryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &PackagingError{Binary: filepath.Base(binaryPath), Dir: filepath.Dir(binaryPath)}
		}
		return fmt.Errorf("stat binary: %w", err)
	}

	src, err := os.Open(binaryPath)
	if err != nil {
		return fmt.Errorf("open binary: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer dst.Close()

	switch format {
	case FormatZip:
		err = writeZip(dst, src, filepath.Base(binaryPath), info)
	default:
		err = writeTarGz(dst, src, filepath.Base(binaryPath), info)
	}
	if err != nil {
		// Leave no partially-written archive behind.
		os.Remove(dstPath)
		return fmt.Errorf("write %s archive: %w", format, err)
	}
	return nil
}

func writeTarGz(dst io.Writer, src io.Reader, name string, info os.FileInfo) error {
	gz := gzip.NewWriter(dst)
	tw := tar.NewWriter(gz)

	hdr := &tar.Header{
		Name:    name,
		Mode:    0o755,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if _, err := io.Copy(tw, src); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func writeZip(dst io.Writer, src io.Reader, name string, info os.FileInfo) error {
	zw := zip.NewWriter(dst)

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return zw.Close()
}
