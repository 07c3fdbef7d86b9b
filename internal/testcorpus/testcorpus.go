// Package testcorpus builds small PHI/TLG volumes in memory for tests.
//
// The builders write the same byte layout as the disc files: an AUTHTAB.DIR
// catalogue, an .IDT index and a .TXT file cut into 0x2000-byte blocks.
package testcorpus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/ibycus/core/citation"
)

// BlockSize is the size of a text block.
const BlockSize = 0x2000

const (
	codeEOF            = 0x00
	codeNewAuthor      = 0x01
	codeNewWork        = 0x02
	codeNewSection     = 0x03
	codeSectionStart   = 0x08
	codeSectionEnd     = 0x09
	codeLastID         = 0x0A
	codeExceptionStart = 0x0B
	codeExceptionEnd   = 0x0C
	codeDescAB         = 0x10
	codeDescNZ         = 0x11

	markEndOfBlock = 0xFE
	markEndOfFile  = 0xF0
)

// Section describes one index section. Citations use the citation.Parse syntax.
type Section struct {
	Block      int
	Start, End string
	LastIDs    []string
	Exceptions [][2]string
}

// Work describes a work record. Trailer is appended raw after the sections.
type Work struct {
	ID, Name string
	Block    int
	Levels   []string
	Sections []Section
	Trailer  []byte
}

// Author describes an author record.
type Author struct {
	ID, Name string
	Block    int
	Works    []Work
}

// Line is one text line. A line with an empty ID and a Flag is a marker.
type Line struct {
	ID   string
	Text string
	Flag citation.Flag
}

// CatalogueAuthor is an AUTHTAB.DIR author entry.
type CatalogueAuthor struct {
	ID, Name string
	Aliases  []string
	Comment  string
}

// Corpus is an AUTHTAB.DIR corpus record.
type Corpus struct {
	Tag, Name string
	Authors   []CatalogueAuthor
}

func u16(n int) []byte {
	return []byte{byte(n >> 8), byte(n)}
}

func lenString(s string) []byte {
	return append([]byte{byte(len(s))}, s...)
}

func record(code byte, block int, body []byte) []byte {
	out := []byte{code}
	out = append(out, u16(len(body)+5)...)
	out = append(out, u16(block)...)
	return append(out, body...)
}

func encode(tb testing.TB, c, prev citation.Citation) []byte {
	tb.Helper()
	b, err := citation.Encode(c, prev)
	if err != nil {
		tb.Fatalf("encode %s after %s: %v", c, prev, err)
	}
	return b
}

func parse(tb testing.TB, s string) citation.Citation {
	tb.Helper()
	c, err := citation.Parse(s)
	if err != nil {
		tb.Fatalf("parse %q: %v", s, err)
	}
	return c
}

// Index encodes an .IDT file. Citations inside a work are deltas from the
// previous one, starting at the work id.
func Index(tb testing.TB, authors []Author) []byte {
	tb.Helper()
	var out []byte
	for _, a := range authors {
		aid := parse(tb, a.ID)
		body := encode(tb, aid, citation.Citation{})
		body = append(body, codeDescAB, 0x00)
		body = append(body, lenString(a.Name)...)

		for _, w := range a.Works {
			wid := parse(tb, w.ID)
			wb := encode(tb, wid, aid)
			wb = append(wb, codeDescAB, 0x01)
			wb = append(wb, lenString(w.Name)...)
			for i, l := range w.Levels {
				wb = append(wb, codeDescNZ, byte(i))
				wb = append(wb, lenString(l)...)
			}

			prev := wid
			put := func(code byte, id string) {
				c := parse(tb, id)
				wb = append(wb, code)
				wb = append(wb, encode(tb, c, prev)...)
				prev = c
			}
			for _, s := range w.Sections {
				wb = append(wb, codeNewSection)
				wb = append(wb, u16(s.Block)...)
				put(codeSectionStart, s.Start)
				for _, l := range s.LastIDs {
					put(codeLastID, l)
				}
				for _, e := range s.Exceptions {
					wb = append(wb, codeExceptionStart)
					wb = append(wb, u16(s.Block)...)
					c := parse(tb, e[0])
					wb = append(wb, encode(tb, c, prev)...)
					prev = c
					put(codeExceptionEnd, e[1])
				}
				put(codeSectionEnd, s.End)
			}
			wb = append(wb, w.Trailer...)
			body = append(body, record(codeNewWork, w.Block, wb)...)
		}
		out = append(out, record(codeNewAuthor, a.Block, body)...)
	}
	return append(out, codeEOF)
}

// Text encodes a .TXT file with one entry per block. Every block but the
// last ends with an end-of-block marker and zero padding; the last ends
// with an end-of-file marker.
func Text(tb testing.TB, blocks [][]Line) []byte {
	tb.Helper()
	var out []byte
	for i, lines := range blocks {
		var blk []byte
		var prev citation.Citation
		for _, l := range lines {
			if l.ID == "" {
				blk = append(blk, encode(tb, citation.Marker(l.Flag), prev)...)
				continue
			}
			c := parse(tb, l.ID)
			blk = append(blk, encode(tb, c, prev)...)
			blk = append(blk, l.Text...)
			prev = c
		}
		if i < len(blocks)-1 {
			blk = append(blk, markEndOfBlock)
			if len(blk) > BlockSize {
				tb.Fatalf("block %d holds %d bytes", i, len(blk))
			}
			blk = append(blk, make([]byte, BlockSize-len(blk))...)
		} else {
			blk = append(blk, markEndOfFile)
		}
		out = append(out, blk...)
	}
	return out
}

// corpusTag returns the 4-byte record tag for t, adding the leading '*'
// when it is missing. It panics on any other length.
func corpusTag(t string) string {
	if !strings.HasPrefix(t, "*") {
		t = "*" + t
	}
	if len(t) != 4 {
		panic(fmt.Sprintf("testcorpus: corpus tag %q is not 4 bytes", t))
	}
	return t
}

// AuthTab encodes an AUTHTAB.DIR catalogue. Tags are written as "*XXX".
func AuthTab(corpora ...Corpus) []byte {
	var b bytes.Buffer
	for _, c := range corpora {
		var body bytes.Buffer
		body.Write(lenString(c.Name))
		for _, a := range c.Authors {
			body.WriteByte(0xFF)
			body.WriteString(a.ID + " " + a.Name)
			for _, alias := range a.Aliases {
				body.WriteByte(0x80)
				body.WriteString(alias)
			}
			if a.Comment != "" {
				body.WriteByte(0x81)
				body.WriteString(a.Comment)
			}
		}
		body.WriteByte(0xFF)

		b.WriteString(corpusTag(c.Tag))
		binary.Write(&b, binary.BigEndian, uint16(0))
		binary.Write(&b, binary.BigEndian, uint16(8+body.Len()))
		b.Write(body.Bytes())
	}
	b.WriteString("*END")
	return b.Bytes()
}

// HomerID is the text id of the sample volume.
const HomerID = "TLG0012"

// HomerIndex is the index of the sample text: two works, the first with a
// section spanning two blocks.
func HomerIndex() []Author {
	return []Author{{
		ID: "a:12", Name: "Homerus", Block: 0,
		Works: []Work{
			{
				ID: "12.1", Name: "Ilias", Block: 0,
				Levels: []string{"line", "book"},
				Sections: []Section{
					{Block: 0, Start: "12.1.1.1", End: "12.1.1.3"},
					{
						Block: 1, Start: "12.1.2.1", End: "12.1.2.4",
						LastIDs: []string{"12.1.2.2", "12.1.2.4"},
					},
				},
			},
			{
				ID: "12.2", Name: "Odyssea", Block: 3,
				Levels: []string{"line", "book"},
				Sections: []Section{
					{Block: 3, Start: "12.2.1.1", End: "12.2.1.3"},
				},
			},
		},
	}}
}

// HomerText is the text matching HomerIndex.
func HomerText() [][]Line {
	return [][]Line{
		{
			{ID: "12.1.1.1", Text: "mh=nin a)/eide qea\\ *phlhi+a/dew *)axilh=os"},
			{ID: "12.1.1.2", Text: "ou)lome/nhn, h(\\ muri/' *)axaioi=s a)/lge' e)/qhke,"},
			{ID: "12.1.1.3", Text: "polla\\s d' i)fqi/mous yuxa\\s *)/ai+di proi/+ayen"},
		},
		{
			{ID: "12.1.2.1", Text: "a)/lloi me/n r(a qeoi/ te kai\\ a)ne/res i(ppokorustai\\"},
			{ID: "12.1.2.2", Text: "eu(=don pannu/xioi, *di/a d' ou)k e)/xe nh/dumos u(/pnos,"},
		},
		{
			{ID: "12.1.2.3", Text: "a)ll' o(/ ge mermh/rize kata\\ fre/na w(s *)axilh=a"},
			{ID: "12.1.2.4", Text: "timh/sh|, o)le/sh| de\\ pole/as e)pi\\ nhusi\\n *)axaiw=n."},
		},
		{
			{ID: "12.2.1.1", Text: "a)/ndra moi e)/nnepe, mou=sa, polu/tropon, o(\\s ma/la polla\\"},
			{Flag: citation.ExceptionStart},
			{ID: "12.2.1.2", Text: "pla/gxqh, e)pei\\ *troi/hs i(ero\\n ptoli/eqron e)/perse:"},
			{Flag: citation.ExceptionEnd},
			{ID: "12.2.1.3", Text: "pollw=n d' a)nqrw/pwn i)/den a)/stea kai\\ no/on e)/gnw,"},
		},
	}
}

// HomerCatalogue is an AUTHTAB.DIR listing the sample author.
func HomerCatalogue() []Corpus {
	return []Corpus{{
		Tag:  "*TLG",
		Name: "Thesaurus Linguae Graecae",
		Authors: []CatalogueAuthor{
			{ID: "TLG0012", Name: "Homerus", Aliases: []string{"Homer"}, Comment: "Epic."},
			{ID: "TLG0020", Name: "Hesiodus"},
		},
	}}
}

// Files returns the sample volume as file name to content.
func Files(tb testing.TB) map[string][]byte {
	tb.Helper()
	return map[string][]byte{
		"AUTHTAB.DIR":     AuthTab(HomerCatalogue()...),
		HomerID + ".TXT": Text(tb, HomerText()),
		HomerID + ".IDT": Index(tb, HomerIndex()),
	}
}

// WriteVolume writes the sample volume into dir.
func WriteVolume(tb testing.TB, dir string) {
	tb.Helper()
	for name, data := range Files(tb) {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}
}
