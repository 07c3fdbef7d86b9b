// Package txt navigates the citation-tagged lines of a PHI/TLG .TXT file.
//
// A text is a sequence of 0x2000-byte blocks. Each line is a delta-encoded
// citation followed by beta-code text; the first line of a block carries a
// full citation so reading can start at any block boundary. The companion
// .IDT index maps sections and citations to blocks.
package txt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/ibycus/core/citation"
	"github.com/FocuswithJustin/ibycus/core/cursor"
	"github.com/FocuswithJustin/ibycus/core/errors"
	"github.com/FocuswithJustin/ibycus/core/idt"
	"github.com/FocuswithJustin/ibycus/internal/fileutil"
	"github.com/FocuswithJustin/ibycus/internal/logging"
)

// BlockSize is the size of a text block.
const BlockSize = 0x2000

// State is the read state of a File.
type State int

const (
	NotReady State = iota
	Ready
	BeginningOfSection
	EndOfSection
	EndOfWork
	EndOfAuthor
)

func (s State) String() string {
	switch s {
	case NotReady:
		return "not ready"
	case Ready:
		return "ready"
	case BeginningOfSection:
		return "beginning of section"
	case EndOfSection:
		return "end of section"
	case EndOfWork:
		return "end of work"
	case EndOfAuthor:
		return "end of author"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Line is a decoded text line. Marker records have a flag and no text.
type Line struct {
	ID   citation.Citation
	Text string
}

// Flag returns the control flag of the line's citation.
func (l Line) Flag() citation.Flag {
	return l.ID.Flag()
}

type position struct {
	author, work, section int
}

// File is an open text with its index. It is not safe for concurrent use.
type File struct {
	name   string
	path   string
	cur    *cursor.Cursor
	closer io.Closer
	index  *idt.File
	owns   bool

	pos   position
	block int
	state State
	line  Line
	prev  citation.Citation

	start, eos, eow, eoa citation.Citation
}

type options struct {
	index []idt.Option
}

// Option configures Open.
type Option func(*options)

// WithIndexOptions passes options to the index opened alongside the text.
func WithIndexOptions(opts ...idt.Option) Option {
	return func(o *options) {
		o.index = append(o.index, opts...)
	}
}

// WithCacheSize sets how many decoded works the index keeps.
func WithCacheSize(n int) Option {
	return WithIndexOptions(idt.WithCacheSize(n))
}

// Open opens <id>.TXT and <id>.IDT in dir. File names match
// case-insensitively.
func Open(dir, id string, opts ...Option) (*File, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	path, err := fileutil.Find(dir, id+".TXT")
	if err != nil {
		return nil, err
	}
	cf, err := cursor.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	index, err := idt.Open(dir, id, o.index...)
	if err != nil {
		cf.Close()
		return nil, err
	}

	f := &File{
		name:   strings.ToUpper(id),
		path:   path,
		cur:    cf.Cursor,
		closer: cf,
		index:  index,
		owns:   true,
	}
	logging.CorpusOpened(f.name, path)
	return f, nil
}

// New returns a File reading text from r with an already open index. The
// caller keeps ownership of the index.
func New(r io.ReadSeeker, index *idt.File, name string) *File {
	return &File{
		name:  strings.ToUpper(name),
		cur:   cursor.New(r),
		index: index,
	}
}

// Close releases the text file and, when Open created it, the index.
func (f *File) Close() error {
	var err error
	if f.closer != nil {
		err = f.closer.Close()
	}
	if f.owns {
		if ierr := f.index.Close(); err == nil {
			err = ierr
		}
	}
	f.state = NotReady
	return err
}

// Filename returns the base name of the text file.
func (f *File) Filename() string {
	if f.path != "" {
		return filepath.Base(f.path)
	}
	return f.name + ".TXT"
}

// Index returns the index of the text.
func (f *File) Index() *idt.File {
	return f.index
}

func (f *File) seekBlock(block int) error {
	if err := f.cur.Seek(int64(block) * BlockSize); err != nil {
		return errors.NewIO("seek", f.Filename(), err)
	}
	f.block = block
	f.prev = citation.Citation{}
	return nil
}

func (f *File) readLine() (Line, error) {
	id, err := citation.Read(f.cur, f.prev)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.Path = f.Filename()
		}
		return Line{}, err
	}
	f.prev = id
	if id.Flag() != citation.NoFlag {
		return Line{ID: id}, nil
	}
	text, err := f.cur.ReadHighBitString()
	if err != nil {
		return Line{}, errors.NewIO("read", f.Filename(), err)
	}
	return Line{ID: id, Text: text}, nil
}

func (f *File) checkPosition(a, w, s int) error {
	n, err := f.index.AuthorCount()
	if err != nil {
		return err
	}
	if err := errors.CheckIndex("author", a, n); err != nil {
		return err
	}
	if n, err = f.index.WorkCount(a); err != nil {
		return err
	}
	if err := errors.CheckIndex("work", w, n); err != nil {
		return err
	}
	if n, err = f.index.SectionCount(a, w); err != nil {
		return err
	}
	return errors.CheckIndex("section", s, n)
}

func (f *File) refreshBoundaries() error {
	a, w, s := f.pos.author, f.pos.work, f.pos.section
	var err error
	if f.start, err = f.index.Start(a, w, s); err != nil {
		return err
	}
	if f.eos, err = f.index.SectionEnd(a, w, s); err != nil {
		return err
	}
	if f.eow, err = f.index.WorkEnd(a, w); err != nil {
		return err
	}
	f.eoa, err = f.index.AuthorEnd(a)
	return err
}

// Top positions the reader on the first line of section s of work w of
// author a.
func (f *File) Top(a, w, s int) error {
	f.state = NotReady
	if err := f.checkPosition(a, w, s); err != nil {
		return err
	}
	f.pos = position{a, w, s}
	if err := f.refreshBoundaries(); err != nil {
		return err
	}
	f.line = Line{}
	f.state = BeginningOfSection

	ok, err := f.Next()
	if err != nil {
		logging.NavigationError(f.name, "top", err)
		return err
	}
	if !ok {
		return errors.NewNoID(f.start.String(), "text ends before the section starts")
	}
	return nil
}

// Start positions the reader on the start citation of a section.
func (f *File) Start(a, w, s int) error {
	start, err := f.index.Start(a, w, s)
	if err != nil {
		return err
	}
	return f.Goto(start)
}

// firstLine reads from the section's block until a line that belongs to
// the section. The first section of a work matches on the work alone so
// that title lines are included.
func (f *File) firstLine() error {
	sec, err := f.index.Section(f.pos.author, f.pos.work, f.pos.section)
	if err != nil {
		return err
	}
	if err := f.seekBlock(sec.Block); err != nil {
		return err
	}

	depth := citation.DepthSection
	if f.pos.section == 0 {
		depth = citation.DepthWork
	}
	for {
		line, err := f.readLine()
		if err != nil {
			return err
		}
		switch line.Flag() {
		case citation.NoFlag:
			if line.ID.SameAs(f.start, depth) {
				f.line = line
				return nil
			}
		case citation.EndOfBlock, citation.EndOfFile:
			return errors.NewNoID(f.start.String(), fmt.Sprintf("block %d ends before the section starts", f.block))
		}
	}
}

// Next advances to the next line. It returns false at the end of the file
// or when the reader is not positioned. Exception markers are returned as
// lines.
func (f *File) Next() (bool, error) {
	switch f.state {
	case BeginningOfSection:
		if err := f.firstLine(); err != nil {
			f.state = NotReady
			return false, err
		}
		f.state = Ready
	case Ready:
		line, err := f.readLine()
		if err != nil {
			f.state = NotReady
			return false, err
		}
		f.line = line
	default:
		return false, nil
	}

	for f.line.Flag() == citation.EndOfBlock {
		if err := f.seekBlock(f.block + 1); err != nil {
			f.state = NotReady
			return false, err
		}
		line, err := f.readLine()
		if err != nil {
			f.state = NotReady
			return false, err
		}
		f.line = line
	}
	if f.line.Flag() == citation.EndOfFile {
		f.state = NotReady
		return false, nil
	}
	return true, nil
}

// snapshot is the navigation state Goto restores on failure.
type snapshot struct {
	pos                  position
	block                int
	state                State
	line                 Line
	prev                 citation.Citation
	start, eos, eow, eoa citation.Citation
	offset               int64
}

func (f *File) save() snapshot {
	return snapshot{
		pos: f.pos, block: f.block, state: f.state, line: f.line, prev: f.prev,
		start: f.start, eos: f.eos, eow: f.eow, eoa: f.eoa,
		offset: f.cur.Tell(),
	}
}

func (f *File) restore(s snapshot) {
	f.pos, f.block, f.state, f.line, f.prev = s.pos, s.block, s.state, s.line, s.prev
	f.start, f.eos, f.eow, f.eoa = s.start, s.eos, s.eow, s.eoa
	if err := f.cur.Seek(s.offset); err != nil {
		f.state = NotReady
	}
}

// Goto positions the reader on the line whose citation equals target. On
// failure the previous position is kept and a NoIDError is returned.
func (f *File) Goto(target citation.Citation) error {
	saved := f.save()
	if err := f.find(target); err != nil {
		f.restore(saved)
		logging.NavigationError(f.name, "goto", err, "citation", target.String())
		return err
	}
	return nil
}

func (f *File) find(target citation.Citation) error {
	authors, err := f.index.AuthorCount()
	if err != nil {
		return err
	}
	for a := 0; a < authors; a++ {
		works, err := f.index.WorkCount(a)
		if err != nil {
			return err
		}
		for w := 0; w < works; w++ {
			wid, err := f.index.WorkID(a, w)
			if err != nil {
				return err
			}
			if !target.SameAs(wid, citation.DepthWork) {
				continue
			}
			sections, err := f.index.Sections(a, w)
			if err != nil {
				return err
			}
			for s, sec := range sections {
				if !contains(sec, target) {
					continue
				}
				block, err := sec.BlockFor(target)
				if errors.Is(err, errors.ErrNoID) {
					continue
				}
				if err != nil {
					return err
				}
				found, err := f.scanBlock(block, target)
				if err != nil {
					return err
				}
				if !found {
					continue
				}
				f.pos = position{a, w, s}
				if err := f.refreshBoundaries(); err != nil {
					return err
				}
				f.state = Ready
				return nil
			}
		}
	}
	return errors.NewNoID(target.String(), "not found in "+f.name)
}

// contains reports whether target may lie in sec: it shares the section's
// first level below the work, or falls between its start and end.
func contains(sec *idt.Section, target citation.Citation) bool {
	if target.SameAs(sec.Start, citation.DepthSection) {
		return true
	}
	return citation.Compare(sec.Start, target) <= 0 && citation.Compare(target, sec.End) <= 0
}

func (f *File) scanBlock(block int, target citation.Citation) (bool, error) {
	if err := f.seekBlock(block); err != nil {
		return false, err
	}
	for {
		line, err := f.readLine()
		if err != nil {
			return false, err
		}
		switch line.Flag() {
		case citation.EndOfBlock, citation.EndOfFile:
			return false, nil
		case citation.NoFlag:
			if line.ID.Equal(target) {
				f.line = line
				return true, nil
			}
		}
	}
}
