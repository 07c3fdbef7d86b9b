package idt

import (
	"github.com/FocuswithJustin/ibycus/core/citation"
	"github.com/FocuswithJustin/ibycus/core/errors"
)

// AuthorName returns the name in author a's header.
func (f *File) AuthorName(a int) (string, error) {
	author, err := f.Author(a)
	if err != nil {
		return "", err
	}
	return author.Name, nil
}

// AuthorID returns the citation in author a's header.
func (f *File) AuthorID(a int) (citation.Citation, error) {
	author, err := f.Author(a)
	if err != nil {
		return citation.Citation{}, err
	}
	return author.ID, nil
}

// WorkName returns the title of work w of author a.
func (f *File) WorkName(a, w int) (string, error) {
	work, err := f.Work(a, w)
	if err != nil {
		return "", err
	}
	return work.Name, nil
}

// WorkID returns the citation in the header of work w of author a.
func (f *File) WorkID(a, w int) (citation.Citation, error) {
	work, err := f.Work(a, w)
	if err != nil {
		return citation.Citation{}, err
	}
	return work.ID, nil
}

// CiteLevels returns the number of named citation levels of a work.
func (f *File) CiteLevels(a, w int) (int, error) {
	work, err := f.Work(a, w)
	if err != nil {
		return 0, err
	}
	return work.CiteLevels(), nil
}

// LevelDescriptions returns the names of a work's citation levels keyed by
// level number, 0 being the finest.
func (f *File) LevelDescriptions(a, w int) (map[byte]string, error) {
	work, err := f.Work(a, w)
	if err != nil {
		return nil, err
	}
	return work.LevelDescriptions, nil
}

// Start returns the first citation of a section.
func (f *File) Start(a, w, s int) (citation.Citation, error) {
	sec, err := f.Section(a, w, s)
	if err != nil {
		return citation.Citation{}, err
	}
	return sec.Start, nil
}

// SectionEnd returns the last citation of a section.
func (f *File) SectionEnd(a, w, s int) (citation.Citation, error) {
	sec, err := f.Section(a, w, s)
	if err != nil {
		return citation.Citation{}, err
	}
	return sec.End, nil
}

// WorkEnd returns the end of the last section of a work.
func (f *File) WorkEnd(a, w int) (citation.Citation, error) {
	sections, err := f.Sections(a, w)
	if err != nil {
		return citation.Citation{}, err
	}
	if len(sections) == 0 {
		return citation.Citation{}, errors.NewRange("section", 0, 0)
	}
	return sections[len(sections)-1].End, nil
}

// AuthorEnd returns the end of the last work of an author.
func (f *File) AuthorEnd(a int) (citation.Citation, error) {
	n, err := f.WorkCount(a)
	if err != nil {
		return citation.Citation{}, err
	}
	if n == 0 {
		return citation.Citation{}, errors.NewRange("work", 0, 0)
	}
	return f.WorkEnd(a, n-1)
}

// Block resolves id to a text block within a section.
func (f *File) Block(a, w, s int, id citation.Citation) (int, error) {
	sec, err := f.Section(a, w, s)
	if err != nil {
		return 0, err
	}
	return sec.BlockFor(id)
}

// Span returns the number of block boundaries of a section.
func (f *File) Span(a, w, s int) (int, error) {
	sec, err := f.Section(a, w, s)
	if err != nil {
		return 0, err
	}
	return sec.Span(), nil
}
