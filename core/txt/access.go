package txt

import (
	"strings"

	"github.com/FocuswithJustin/ibycus/core/citation"
)

// Text returns the text of the current line.
func (f *File) Text() string { return f.line.Text }

// ID returns the citation of the current line.
func (f *File) ID() citation.Citation { return f.line.ID }

// Line returns the current line.
func (f *File) Line() Line { return f.line }

// Block returns the number of the block being read.
func (f *File) Block() int { return f.block }

// Position returns the author, work and section the reader was last
// positioned on by Top, Start or Goto.
func (f *File) Position() (author, work, section int) {
	return f.pos.author, f.pos.work, f.pos.section
}

// State reports the read state. A ready reader past one of the cached
// boundaries reports the widest boundary it has crossed.
func (f *File) State() State {
	if f.state != Ready {
		return f.state
	}
	switch {
	case f.EOA():
		return EndOfAuthor
	case f.EOW():
		return EndOfWork
	case f.EOS():
		return EndOfSection
	}
	return Ready
}

func (f *File) past(boundary citation.Citation) bool {
	if f.line.Flag() == citation.EndOfFile {
		return true
	}
	if f.line.ID.IsNull() {
		return false
	}
	return citation.Compare(f.line.ID, boundary) > 0
}

// EOS reports whether the current line lies past the end of the section.
func (f *File) EOS() bool { return f.past(f.eos) }

// EOW reports whether the current line lies past the end of the work.
func (f *File) EOW() bool { return f.past(f.eow) }

// EOA reports whether the current line lies past the end of the author.
func (f *File) EOA() bool { return f.past(f.eoa) }

const codeChars = "\\/=|*0123456789$&%\"@[]<>{}#().,;:"

// StripCodes returns the current text without beta-code markup and
// punctuation.
func (f *File) StripCodes() string {
	return StripCodes(f.line.Text)
}

// StripCodes removes beta-code markup and punctuation from s.
func StripCodes(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(codeChars, r) {
			return -1
		}
		return r
	}, s)
}

// StartID returns the first citation of a section. A negative work or
// section selects the first one.
func (f *File) StartID(a, w, s int) (citation.Citation, error) {
	return f.index.Start(a, max(w, 0), max(s, 0))
}

// EndID returns the last citation of a section, work or author. A
// negative section selects the whole work; a negative work the whole
// author.
func (f *File) EndID(a, w, s int) (citation.Citation, error) {
	switch {
	case w < 0:
		return f.index.AuthorEnd(a)
	case s < 0:
		return f.index.WorkEnd(a, w)
	}
	return f.index.SectionEnd(a, w, s)
}

// AuthorCount returns the number of authors in the text.
func (f *File) AuthorCount() (int, error) { return f.index.AuthorCount() }

// WorkCount returns the number of works of author a.
func (f *File) WorkCount(a int) (int, error) { return f.index.WorkCount(a) }

// SectionCount returns the number of sections of a work.
func (f *File) SectionCount(a, w int) (int, error) { return f.index.SectionCount(a, w) }

// Name returns the name of author a.
func (f *File) Name(a int) (string, error) { return f.index.AuthorName(a) }

// WorkName returns the title of work w of author a.
func (f *File) WorkName(a, w int) (string, error) { return f.index.WorkName(a, w) }

// Lines collects text lines from the current one up to the end of the
// section, at most n of them when n is positive. Markers are skipped. The
// reader is left on the first line not returned.
func (f *File) Lines(n int) ([]Line, error) {
	var out []Line
	for f.state == Ready && !f.EOS() && (n <= 0 || len(out) < n) {
		if f.line.Flag() == citation.NoFlag {
			out = append(out, f.line)
		}
		ok, err := f.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
	}
	return out, nil
}
