package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/ibycus/core/errors"
)

var members = map[string]string{
	"tlg/AUTHTAB.DIR": "catalogue",
	"tlg/TLG0012.TXT": "text",
	"tlg/tlg0012.idt": "index",
	"tlg/doc/README":  "readme",
}

func writeTar(t *testing.T, w io.Writer) {
	t.Helper()
	tw := tar.NewWriter(w)
	if err := tw.WriteHeader(&tar.Header{Name: "tlg/", Mode: 0o755, Typeflag: tar.TypeDir}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for name, content := range members {
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("write content: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
}

func createArchive(t *testing.T, dir string, format Format) string {
	t.Helper()
	p := filepath.Join(dir, "volume."+string(format))
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()

	switch format {
	case FormatTar:
		writeTar(t, f)
	case FormatTarGz:
		gw := gzip.NewWriter(f)
		writeTar(t, gw)
		gw.Close()
	case FormatTarXz:
		xw, err := xz.NewWriter(f)
		if err != nil {
			t.Fatalf("xz writer: %v", err)
		}
		writeTar(t, xw)
		xw.Close()
	case FormatTarZst:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			t.Fatalf("zstd writer: %v", err)
		}
		writeTar(t, zw)
		zw.Close()
	}
	return p
}

func TestLoadMembers(t *testing.T) {
	for _, format := range []Format{FormatTar, FormatTarGz, FormatTarXz, FormatTarZst} {
		t.Run(string(format), func(t *testing.T) {
			p := createArchive(t, t.TempDir(), format)

			got, err := LoadMembers(p, func(name string) bool { return name != "README" })
			if err != nil {
				t.Fatalf("LoadMembers: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("got %d members, want 3: %v", len(got), got)
			}
			if string(got["TLG0012.TXT"]) != "text" || string(got["tlg0012.idt"]) != "index" {
				t.Errorf("members = %q", got)
			}
			if _, ok := got["README"]; ok {
				t.Error("filtered member was loaded")
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	p := createArchive(t, t.TempDir(), FormatTarGz)

	data, err := ReadFile(p, "authtab.dir")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "catalogue" {
		t.Errorf("ReadFile = %q", data)
	}

	if _, err := ReadFile(p, "MISSING"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("ReadFile(missing) = %v, want ErrNotFound", err)
	}
}

func TestIterateStops(t *testing.T) {
	p := createArchive(t, t.TempDir(), FormatTarXz)
	seen := 0
	err := IterateArchive(p, func(h *tar.Header, _ io.Reader) (bool, error) {
		seen++
		return true, nil
	})
	if err != nil || seen != 1 {
		t.Errorf("IterateArchive visited %d entries, %v", seen, err)
	}
}

func TestNewReaderErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewReader(filepath.Join(dir, "volume.rar")); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("NewReader(.rar) = %v, want ErrUnsupported", err)
	}
	if _, err := NewReader(filepath.Join(dir, "missing.tar.gz")); err == nil {
		t.Error("NewReader(missing) should fail")
	}

	bad := filepath.Join(dir, "bad.tar.gz")
	if err := os.WriteFile(bad, []byte("not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(bad); err == nil {
		t.Error("NewReader(corrupt gzip) should fail")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
		name string
	}{
		{"tlg-e.tar.gz", FormatTarGz, "tlg-e"},
		{"TLG-E.TGZ", FormatTarGz, "TLG-E"},
		{"phi5.tar.xz", FormatTarXz, "phi5"},
		{"phi7.tar.zst", FormatTarZst, "phi7"},
		{"disc.tar", FormatTar, "disc"},
		{"disc.zip", FormatUnknown, "disc.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectFormat(tt.path); got != tt.want {
				t.Errorf("DetectFormat = %q, want %q", got, tt.want)
			}
			if got := IsSupportedFormat(tt.path); got != (tt.want != FormatUnknown) {
				t.Errorf("IsSupportedFormat = %v", got)
			}
			if got := VolumeName(tt.path); got != tt.name {
				t.Errorf("VolumeName = %q, want %q", got, tt.name)
			}
		})
	}
}
