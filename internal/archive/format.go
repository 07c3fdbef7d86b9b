package archive

import "strings"

// Format is an archive container and compression.
type Format string

const (
	FormatTar     Format = "tar"
	FormatTarGz   Format = "tar.gz"
	FormatTarXz   Format = "tar.xz"
	FormatTarZst  Format = "tar.zst"
	FormatUnknown Format = "unknown"
)

var suffixes = []struct {
	ext    string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.xz", FormatTarXz},
	{".txz", FormatTarXz},
	{".tar.zst", FormatTarZst},
	{".tzst", FormatTarZst},
	{".tar", FormatTar},
}

// DetectFormat detects the archive format from the file extension.
func DetectFormat(p string) Format {
	lower := strings.ToLower(p)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) {
			return s.format
		}
	}
	return FormatUnknown
}

// IsSupportedFormat returns true if the file has a supported archive extension.
func IsSupportedFormat(p string) bool {
	return DetectFormat(p) != FormatUnknown
}

// VolumeName strips the archive extension from a file name, so
// "tlg-e.tar.xz" names the volume "tlg-e".
func VolumeName(filename string) string {
	lower := strings.ToLower(filename)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) {
			return filename[:len(filename)-len(s.ext)]
		}
	}
	return filename
}
