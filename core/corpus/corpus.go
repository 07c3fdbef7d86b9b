// Package corpus opens a PHI/TLG volume: a directory or archive holding
// AUTHTAB.DIR and pairs of .TXT and .IDT files.
package corpus

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/ibycus/core/authtab"
	"github.com/FocuswithJustin/ibycus/core/cas"
	"github.com/FocuswithJustin/ibycus/core/errors"
	"github.com/FocuswithJustin/ibycus/core/idt"
	"github.com/FocuswithJustin/ibycus/core/txt"
	"github.com/FocuswithJustin/ibycus/internal/archive"
	"github.com/FocuswithJustin/ibycus/internal/fileutil"
	"github.com/FocuswithJustin/ibycus/internal/logging"
)

// Volume is an opened corpus volume. Each text or index opened from it is
// an independent reader: different readers may be used from different
// goroutines, but a single reader must not be shared between them.
type Volume struct {
	Name string
	Path string

	catalogue *authtab.AuthTab
	texts     []fileutil.Pair
	byID      map[string]fileutil.Pair

	// members holds archive contents keyed by upper-case file name. It is
	// nil for directories.
	members map[string][]byte
}

// Fingerprint identifies the content of a text and its index.
type Fingerprint struct {
	ID    string          `json:"id"`
	Text  *cas.HashResult `json:"text"`
	Index *cas.HashResult `json:"index"`
}

// Open opens path as a directory volume, or as an archive when it is a
// file with a supported extension.
func Open(path string) (*Volume, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewIO("stat", path, err)
	}
	if info.IsDir() {
		return OpenDir(path)
	}
	return OpenArchive(path)
}

// OpenDir opens a volume directory. A missing AUTHTAB.DIR is allowed.
func OpenDir(dir string) (*Volume, error) {
	pairs, err := fileutil.Texts(dir)
	if err != nil {
		return nil, err
	}
	v := &Volume{Name: filepath.Base(dir), Path: dir}
	v.setTexts(pairs)

	at, err := authtab.Open(dir)
	switch {
	case err == nil:
		v.catalogue = at
	case errors.Is(err, errors.ErrNotFound):
		logging.Debug("volume has no catalogue", "path", dir)
	default:
		return nil, err
	}

	logging.CorpusOpened(v.Name, dir, "texts", len(v.texts))
	return v, nil
}

// OpenArchive reads the corpus files of a tar archive into memory.
func OpenArchive(path string) (*Volume, error) {
	if !archive.IsSupportedFormat(path) {
		return nil, errors.NewUnsupported("archive format", filepath.Base(path))
	}
	members, err := archive.LoadMembers(path, isCorpusFile)
	if err != nil {
		return nil, err
	}

	v := &Volume{
		Name:    archive.VolumeName(filepath.Base(path)),
		Path:    path,
		members: make(map[string][]byte, len(members)),
	}
	names := make([]string, 0, len(members))
	for name, data := range members {
		upper := strings.ToUpper(name)
		v.members[upper] = data
		names = append(names, upper)
	}
	v.setTexts(fileutil.PairNames(names, func(n string) string { return n }))

	if data, ok := v.members[authtab.FileName]; ok {
		at, err := authtab.Read(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		at.Path = path + ":" + authtab.FileName
		v.catalogue = at
	}

	logging.CorpusOpened(v.Name, path, "texts", len(v.texts), "archive", string(archive.DetectFormat(path)))
	return v, nil
}

func isCorpusFile(name string) bool {
	if strings.EqualFold(name, authtab.FileName) {
		return true
	}
	ext := strings.ToUpper(filepath.Ext(name))
	return ext == ".TXT" || ext == ".IDT"
}

func (v *Volume) setTexts(pairs []fileutil.Pair) {
	v.texts = pairs
	v.byID = make(map[string]fileutil.Pair, len(pairs))
	for _, p := range pairs {
		v.byID[p.ID] = p
	}
}

// Catalogue returns the volume's AUTHTAB.DIR, or nil when it has none.
func (v *Volume) Catalogue() *authtab.AuthTab {
	return v.catalogue
}

// Texts returns the ids that have both a text and an index, sorted.
func (v *Volume) Texts() []string {
	ids := make([]string, len(v.texts))
	for i, p := range v.texts {
		ids[i] = p.ID
	}
	return ids
}

// Has reports whether the volume holds text id.
func (v *Volume) Has(id string) bool {
	_, ok := v.byID[strings.ToUpper(id)]
	return ok
}

func (v *Volume) pair(id string) (fileutil.Pair, error) {
	p, ok := v.byID[strings.ToUpper(id)]
	if !ok {
		return p, errors.NewNotFound("text", id)
	}
	return p, nil
}

// Author returns the catalogue entry for a text id.
func (v *Volume) Author(id string) (authtab.Author, bool) {
	if v.catalogue == nil {
		return authtab.Author{}, false
	}
	a, _, ok := v.catalogue.Lookup(strings.ToUpper(id))
	return a, ok
}

// OpenText opens a text and its index.
func (v *Volume) OpenText(id string, opts ...idt.Option) (*txt.File, error) {
	p, err := v.pair(id)
	if err != nil {
		return nil, err
	}
	if v.members == nil {
		return txt.Open(v.Path, p.ID, txt.WithIndexOptions(opts...))
	}
	index := idt.New(bytes.NewReader(v.members[p.IDT]), p.ID, opts...)
	return txt.New(bytes.NewReader(v.members[p.TXT]), index, p.ID), nil
}

// OpenIndex opens the index of a text.
func (v *Volume) OpenIndex(id string, opts ...idt.Option) (*idt.File, error) {
	p, err := v.pair(id)
	if err != nil {
		return nil, err
	}
	if v.members == nil {
		return idt.Open(v.Path, p.ID, opts...)
	}
	return idt.New(bytes.NewReader(v.members[p.IDT]), p.ID, opts...), nil
}

// Fingerprint hashes a text and its index with SHA-256 and BLAKE3.
func (v *Volume) Fingerprint(id string) (*Fingerprint, error) {
	p, err := v.pair(id)
	if err != nil {
		return nil, err
	}
	fp := &Fingerprint{ID: p.ID}
	if fp.Text, err = v.hash(p.TXT); err != nil {
		return nil, err
	}
	if fp.Index, err = v.hash(p.IDT); err != nil {
		return nil, err
	}
	return fp, nil
}

func (v *Volume) hash(name string) (*cas.HashResult, error) {
	if v.members == nil {
		return cas.HashFile(name)
	}
	return cas.Sum(v.members[name]), nil
}

// CatalogueSum hashes the volume's AUTHTAB.DIR. It returns nil, nil when
// the volume has no catalogue.
func (v *Volume) CatalogueSum() (*cas.HashResult, error) {
	if v.catalogue == nil {
		return nil, nil
	}
	if v.members == nil {
		return cas.HashFile(v.catalogue.Path)
	}
	data, ok := v.members[authtab.FileName]
	if !ok {
		return nil, errors.NewNotFound("file", authtab.FileName)
	}
	return cas.Sum(data), nil
}

// Close releases archive contents. Texts already opened stay readable.
func (v *Volume) Close() error {
	v.members = nil
	v.texts = nil
	v.byID = nil
	return nil
}
