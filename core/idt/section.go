package idt

import (
	"github.com/FocuswithJustin/ibycus/core/citation"
	"github.com/FocuswithJustin/ibycus/core/cursor"
	"github.com/FocuswithJustin/ibycus/core/errors"
	"github.com/FocuswithJustin/ibycus/internal/logging"
)

// Exception is a run of lines whose citations fall outside the normal
// order of their section.
type Exception struct {
	Block  int
	Start  citation.Citation
	End    citation.Citation
	Single bool
}

// Section is one entry in a work's table of blocks. LastIDs[i] is the last
// citation stored in block Block+i; it is empty when the section fits in
// Block alone.
type Section struct {
	Block      int
	Start      citation.Citation
	End        citation.Citation
	LastIDs    []citation.Citation
	Exceptions []Exception
}

// Span returns the number of block boundaries recorded for the section.
func (s *Section) Span() int {
	return len(s.LastIDs)
}

// BlockFor returns the block that holds id.
func (s *Section) BlockFor(id citation.Citation) (int, error) {
	if id.IsNull() || len(s.LastIDs) == 0 {
		return s.Block, nil
	}
	for i, last := range s.LastIDs {
		if citation.Compare(s.Start, id) <= 0 && citation.Compare(id, last) <= 0 {
			return s.Block + i, nil
		}
	}
	return 0, errors.NewNoID(id.String(), "not within any block of the section")
}

// Sections decodes and returns the sections of work w of author a.
func (f *File) Sections(a, w int) ([]*Section, error) {
	work, err := f.Work(a, w)
	if err != nil {
		return nil, err
	}
	if work.loaded {
		return work.sections, nil
	}
	if err := f.decodeSections(work); err != nil {
		return nil, err
	}
	st := f.works.Stats()
	logging.IndexDecoded(f.Name, a, w, len(work.sections),
		"cache_hits", st.Hits, "cache_misses", st.Misses, "cache_evictions", st.Evictions)
	return work.sections, nil
}

func (f *File) decodeSections(work *Work) error {
	if err := f.seek(work.headerEnd); err != nil {
		return err
	}
	prev := work.ID
	var sections []*Section
	for f.cur.Tell() < work.rec.end {
		off := f.cur.Tell()
		code, err := f.cur.ReadByte()
		if errors.Is(err, cursor.ErrEndOfInput) {
			break
		}
		if err != nil {
			return f.truncated(err)
		}
		if code == codeNewAuthor || code == codeNewWork {
			break
		}
		if code == codeEOF {
			logging.FormatQuirk(f.Name, off, "zero byte ends the sections of a work")
			break
		}
		if code != codeNewSection {
			return f.parseError(off, "expected section record, found %#x", code)
		}
		s, err := f.decodeSection(work.rec.end, &prev)
		if err != nil {
			return err
		}
		sections = append(sections, s)
	}
	work.sections = sections
	work.loaded = true
	return nil
}

func (f *File) decodeSection(end int64, prev *citation.Citation) (*Section, error) {
	block, err := f.cur.ReadUint16()
	if err != nil {
		return nil, f.truncated(err)
	}
	s := &Section{Block: int(block)}

	next := func() (citation.Citation, error) {
		id, err := f.readID(*prev)
		if err != nil {
			return id, err
		}
		*prev = id
		return id, nil
	}

	for f.cur.Tell() < end {
		off := f.cur.Tell()
		code, err := f.cur.ReadByte()
		if errors.Is(err, cursor.ErrEndOfInput) {
			break
		}
		if err != nil {
			return nil, f.truncated(err)
		}

		switch code {
		case codeEOF, codeNewAuthor, codeNewWork, codeNewSection:
			f.cur.PushBack(code)
			return s, nil
		case codeSectionStart:
			if s.Start, err = next(); err != nil {
				return nil, err
			}
		case codeSectionEnd:
			if s.End, err = next(); err != nil {
				return nil, err
			}
		case codeLastID:
			id, err := next()
			if err != nil {
				return nil, err
			}
			s.LastIDs = append(s.LastIDs, id)
		case codeExceptionStart, codeExceptionSingle:
			eb, err := f.cur.ReadUint16()
			if err != nil {
				return nil, f.truncated(err)
			}
			id, err := next()
			if err != nil {
				return nil, err
			}
			s.Exceptions = append(s.Exceptions, Exception{
				Block:  int(eb),
				Start:  id,
				Single: code == codeExceptionSingle,
			})
		case codeExceptionEnd:
			if len(s.Exceptions) == 0 {
				return nil, f.parseError(off, "exception end without a start")
			}
			id, err := next()
			if err != nil {
				return nil, err
			}
			s.Exceptions[len(s.Exceptions)-1].End = id
		default:
			return nil, f.parseError(off, "unexpected section entry %#x", code)
		}
	}
	return s, nil
}

// Section returns section s of work w of author a.
func (f *File) Section(a, w, s int) (*Section, error) {
	sections, err := f.Sections(a, w)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckIndex("section", s, len(sections)); err != nil {
		return nil, err
	}
	return sections[s], nil
}

// SectionCount returns the number of sections of work w of author a.
func (f *File) SectionCount(a, w int) (int, error) {
	sections, err := f.Sections(a, w)
	if err != nil {
		return 0, err
	}
	return len(sections), nil
}
