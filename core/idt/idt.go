// Package idt reads the .IDT index that accompanies every PHI/TLG text.
//
// An index is a tree of author, work and section records. Each record
// carries the number of the first 0x2000-byte text block it covers, so a
// citation can be resolved to a block without scanning the text. Records
// are decoded lazily: the author list is scanned once, an author's header
// and work offsets on first use, and a work's sections on first query.
package idt

import (
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/ibycus/core/cache"
	"github.com/FocuswithJustin/ibycus/core/citation"
	"github.com/FocuswithJustin/ibycus/core/cursor"
	"github.com/FocuswithJustin/ibycus/core/errors"
	"github.com/FocuswithJustin/ibycus/internal/fileutil"
	"github.com/FocuswithJustin/ibycus/internal/logging"
)

// Record type codes.
const (
	codeEOF             = 0x00
	codeNewAuthor       = 0x01
	codeNewWork         = 0x02
	codeNewSection      = 0x03
	codeNewFile         = 0x07
	codeSectionStart    = 0x08
	codeSectionEnd      = 0x09
	codeLastID          = 0x0A
	codeExceptionStart  = 0x0B
	codeExceptionEnd    = 0x0C
	codeExceptionSingle = 0x0D
	codeDescAB          = 0x10
	codeDescNZ          = 0x11
)

// record is the fixed prefix of an author or work record.
type record struct {
	offset int64 // position of the type code
	start  int64 // first byte after the block number
	end    int64 // offset + length
	block  int
}

// Author is a decoded author header.
type Author struct {
	ID        citation.Citation
	Name      string
	Block     int
	headerEnd int64
	works     []record
}

// Work is a decoded work header. Sections are decoded on first use.
type Work struct {
	ID                citation.Citation
	Name              string
	Block             int
	LevelDescriptions map[byte]string

	rec       record
	headerEnd int64
	sections  []*Section
	loaded    bool
}

// CiteLevels returns the number of named citation levels of the work.
func (w *Work) CiteLevels() int {
	return len(w.LevelDescriptions)
}

type workKey struct {
	author, work int
}

// authorSlot is the currently decoded author, keyed by index.
type authorSlot struct {
	index  int
	author *Author
}

// File is an open index. It is not safe for concurrent use.
type File struct {
	Name string
	Path string

	cur     *cursor.Cursor
	closer  io.Closer
	authors []record
	scanned bool
	current *authorSlot
	works   cache.Cache[workKey, *Work]
}

// Option configures a File.
type Option func(*File)

// WithCacheSize sets how many decoded works are kept. Zero keeps all of them.
func WithCacheSize(n int) Option {
	return func(f *File) {
		f.works = cache.NewLRUCache[workKey, *Work](cache.Config{MaxSize: n})
	}
}

// Open opens <id>.IDT in dir, matching the file name case-insensitively.
func Open(dir, id string, opts ...Option) (*File, error) {
	path, err := fileutil.Find(dir, id+".IDT")
	if err != nil {
		return nil, err
	}
	cf, err := cursor.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	f := newFile(cf.Cursor, strings.ToUpper(id), opts)
	f.Path = path
	f.closer = cf
	logging.CorpusOpened(f.Name, path)
	return f, nil
}

// New returns an index reading from r. name is used in errors and logs.
func New(r io.ReadSeeker, name string, opts ...Option) *File {
	return newFile(cursor.New(r), name, opts)
}

func newFile(c *cursor.Cursor, name string, opts []Option) *File {
	f := &File{Name: name, cur: c}
	WithCacheSize(cache.DefaultConfig().MaxSize)(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Close drops the decoded works and releases the underlying file.
func (f *File) Close() error {
	f.works.Clear()
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Tell returns the current read offset in the index.
func (f *File) Tell() int64 {
	return f.cur.Tell()
}

func (f *File) parseError(offset int64, format string, args ...any) error {
	return &errors.ParseError{
		Format:  "IDT",
		Path:    f.Path,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	}
}

func (f *File) truncated(err error) error {
	if errors.Is(err, cursor.ErrEndOfInput) {
		return &errors.ParseError{Format: "IDT", Path: f.Path, Offset: f.cur.Tell(), Message: "truncated record", Err: err}
	}
	return errors.NewIO("read", f.Path, err)
}

func (f *File) seek(off int64) error {
	if err := f.cur.Seek(off); err != nil {
		return errors.NewIO("seek", f.Path, err)
	}
	return nil
}

// readRecord reads a type code, length and block number. ok is false when
// the byte at the current offset is not want.
func (f *File) readRecord(want byte) (record, bool, error) {
	rec := record{offset: f.cur.Tell()}
	code, err := f.cur.ReadByte()
	if errors.Is(err, cursor.ErrEndOfInput) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, f.truncated(err)
	}
	if code != want {
		f.cur.PushBack(code)
		return rec, false, nil
	}
	length, err := f.cur.ReadUint16()
	if err != nil {
		return rec, false, f.truncated(err)
	}
	block, err := f.cur.ReadUint16()
	if err != nil {
		return rec, false, f.truncated(err)
	}
	rec.start = f.cur.Tell()
	rec.end = rec.offset + int64(length)
	rec.block = int(block)
	if rec.end < rec.start {
		return rec, false, f.parseError(rec.offset, "record length %d shorter than its header", length)
	}
	return rec, true, nil
}

func (f *File) scanAuthors() error {
	if f.scanned {
		return nil
	}
	if err := f.seek(0); err != nil {
		return err
	}
	var authors []record
	for {
		rec, ok, err := f.readRecord(codeNewAuthor)
		if err != nil {
			return err
		}
		if !ok {
			code, err := f.cur.ReadByte()
			if err == nil && code != codeEOF {
				return f.parseError(rec.offset, "expected author record, found %#x", code)
			}
			break
		}
		authors = append(authors, rec)
		if err := f.seek(rec.end); err != nil {
			return err
		}
	}
	f.authors = authors
	f.scanned = true
	return nil
}

// AuthorCount returns the number of authors in the index.
func (f *File) AuthorCount() (int, error) {
	if err := f.scanAuthors(); err != nil {
		return 0, err
	}
	return len(f.authors), nil
}

// Author returns the decoded header of author a.
func (f *File) Author(a int) (*Author, error) {
	if f.current != nil && f.current.index == a {
		return f.current.author, nil
	}
	if err := f.scanAuthors(); err != nil {
		return nil, err
	}
	if err := errors.CheckIndex("author", a, len(f.authors)); err != nil {
		return nil, err
	}

	author, err := f.decodeAuthor(f.authors[a])
	if err != nil {
		return nil, err
	}
	f.current = &authorSlot{index: a, author: author}
	return author, nil
}

func (f *File) readID(prev citation.Citation) (citation.Citation, error) {
	off := f.cur.Tell()
	id, err := citation.Read(f.cur, prev)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.Path = f.Path
		}
		return id, err
	}
	if id.Flag() == citation.EndOfFile {
		return id, f.parseError(off, "index ends inside a citation")
	}
	return id, nil
}

// readHeader reads the description marker and name that follow a record's
// citation. level is 0 for authors and 1 for works.
func (f *File) readHeader(level byte) (string, error) {
	code, err := f.cur.ReadByte()
	if err != nil {
		return "", f.truncated(err)
	}
	if code != codeDescAB {
		return "", f.parseError(f.cur.Tell()-1, "expected level description, found %#x", code)
	}
	lv, err := f.cur.ReadByte()
	if err != nil {
		return "", f.truncated(err)
	}
	if lv != level {
		return "", f.parseError(f.cur.Tell()-1, "expected level %d description, found %d", level, lv)
	}
	name, err := f.cur.ReadLenString()
	if err != nil {
		return "", f.truncated(err)
	}
	return name, nil
}

func (f *File) decodeAuthor(rec record) (*Author, error) {
	if err := f.seek(rec.start); err != nil {
		return nil, err
	}
	id, err := f.readID(citation.Citation{})
	if err != nil {
		return nil, err
	}
	name, err := f.readHeader(0)
	if err != nil {
		return nil, err
	}
	author := &Author{ID: id, Name: name, Block: rec.block, headerEnd: f.cur.Tell()}

	for {
		w, ok, err := f.readRecord(codeNewWork)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		author.works = append(author.works, w)
		if err := f.seek(w.end); err != nil {
			return nil, err
		}
	}
	return author, nil
}

// WorkCount returns the number of works of author a.
func (f *File) WorkCount(a int) (int, error) {
	author, err := f.Author(a)
	if err != nil {
		return 0, err
	}
	return len(author.works), nil
}

// Work returns the decoded header of work w of author a.
func (f *File) Work(a, w int) (*Work, error) {
	author, err := f.Author(a)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckIndex("work", w, len(author.works)); err != nil {
		return nil, err
	}
	return f.works.GetOrLoad(workKey{a, w}, func() (*Work, error) {
		return f.decodeWork(author, author.works[w])
	})
}

func (f *File) decodeWork(author *Author, rec record) (*Work, error) {
	if err := f.seek(rec.start); err != nil {
		return nil, err
	}
	id, err := f.readID(author.ID)
	if err != nil {
		return nil, err
	}
	name, err := f.readHeader(1)
	if err != nil {
		return nil, err
	}
	work := &Work{ID: id, Name: name, Block: rec.block, rec: rec, LevelDescriptions: make(map[byte]string)}

	for {
		code, err := f.cur.ReadByte()
		if err != nil {
			return nil, f.truncated(err)
		}
		if code != codeDescNZ {
			f.cur.PushBack(code)
			break
		}
		level, err := f.cur.ReadByte()
		if err != nil {
			return nil, f.truncated(err)
		}
		desc, err := f.cur.ReadLenString()
		if err != nil {
			return nil, f.truncated(err)
		}
		work.LevelDescriptions[level] = desc
	}
	work.headerEnd = f.cur.Tell()
	return work, nil
}
