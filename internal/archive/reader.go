// Package archive reads corpus volumes packed as compressed tar archives.
// It supports tar, tar.gz, tar.xz and tar.zst.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/ibycus/core/errors"
)

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	file         *os.File
	decompressor io.Closer
}

// NewReader creates a new archive reader for the given path. The
// compression is chosen from the file extension.
func NewReader(p string) (*Reader, error) {
	format := DetectFormat(p)
	if format == FormatUnknown {
		return nil, errors.NewUnsupported("archive format", p)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, errors.NewIO("open", p, err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	switch format {
	case FormatTarXz:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case FormatTarGz:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		reader = gzr
		decompressor = gzr
	case FormatTarZst:
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		rc := zr.IOReadCloser()
		reader = rc
		decompressor = rc
	}

	return &Reader{
		Reader:       tar.NewReader(reader),
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateArchive opens an archive and iterates through its entries.
func IterateArchive(p string, visitor Visitor) error {
	r, err := NewReader(p)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// ReadFile reads one member, matching its base name case-insensitively.
func ReadFile(archivePath, filename string) ([]byte, error) {
	var content []byte
	err := IterateArchive(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg || !strings.EqualFold(path.Base(header.Name), filename) {
			return false, nil
		}
		var err error
		content, err = io.ReadAll(r)
		return true, err
	})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, errors.NewNotFound("archive member", filename)
	}
	return content, nil
}

// LoadMembers reads every regular file accepted by keep into memory, keyed
// by base name. Directories inside the archive are flattened; a later
// member replaces an earlier one with the same base name.
func LoadMembers(archivePath string, keep func(name string) bool) (map[string][]byte, error) {
	members := make(map[string][]byte)
	err := IterateArchive(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg {
			return false, nil
		}
		name := path.Base(header.Name)
		if keep != nil && !keep(name) {
			return false, nil
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return true, errors.NewIO("read", archivePath+":"+header.Name, err)
		}
		members[name] = data
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}
