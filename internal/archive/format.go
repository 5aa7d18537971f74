package archive

import "fmt"

// Format identifies the archive container used for a packaged binary.
type Format uint8

const (
	// FormatTarGz is a POSIX tar stream compressed with gzip. The
	// default for every OS family.
	FormatTarGz Format = iota

	// FormatZip is a zip archive, used for the windows family where
	// tarballs are not a native unpack target.
	FormatZip
)

// String returns the human-readable name of a format.
func (f Format) String() string {
	switch f {
	case FormatTarGz:
		return "tar.gz"
	case FormatZip:
		return "zip"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// ParseFormat parses a format from its string representation.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "tar.gz":
		return FormatTarGz, nil
	case "zip":
		return FormatZip, nil
	default:
		return 0, fmt.Errorf("unknown archive format: %q", name)
	}
}

// Extension returns the filename extension for the format, without a
// leading dot.
func (f Format) Extension() string {
	return f.String()
}

// FormatForFamily resolves the archive format for an OS family. The
// mapping is total: families without a special case get a tarball, so no
// declared OS variant can fall through without a defined format.
func FormatForFamily(family string) Format {
	if family == "windows" {
		return FormatZip
	}
	return FormatTarGz
}
