// Package authtab reads AUTHTAB.DIR, the author catalogue shipped on PHI
// and TLG discs.
//
// The file is a list of corpora. Each corpus record starts with a 4-byte
// tag, a 2-byte position and a 2-byte length, followed by the corpus name
// and delimiter-tagged author entries. The tag "*END" ends the list.
package authtab

import (
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/ibycus/core/cursor"
	"github.com/FocuswithJustin/ibycus/core/errors"
	"github.com/FocuswithJustin/ibycus/internal/fileutil"
	"github.com/FocuswithJustin/ibycus/internal/logging"
)

// FileName is the catalogue's name on disc.
const FileName = "AUTHTAB.DIR"

// Author entry delimiters.
const (
	delimAlias    = 0x80
	delimRemarks  = 0x81
	delimReserved = 0x82
	delimAlphabet = 0x83
	delimAuthor   = 0xFF
)

const recordHeaderLen = 8

// Author is one catalogue entry.
type Author struct {
	ID       string   // seven-character id, e.g. "TLG0012"
	Name     string   // display name with "&1Surname&" moved to the front
	RawName  string   // name as stored
	Alphabet byte     // alphabet code, 0 when absent
	Comment  string   // remarks
	Aliases  []string // alternative names
}

// Corpus is a named list of authors.
type Corpus struct {
	Tag     string // tag without leading '*', e.g. "TLG"
	Name    string
	Pos     uint16
	Authors []Author
}

// AuthTab is a decoded catalogue.
type AuthTab struct {
	Path    string
	corpora []Corpus
}

// Open reads AUTHTAB.DIR from dir, matching the file name case-insensitively.
func Open(dir string) (*AuthTab, error) {
	path, err := fileutil.Find(dir, FileName)
	if err != nil {
		return nil, err
	}
	return OpenFile(path)
}

// OpenFile reads the catalogue at path.
func OpenFile(path string) (*AuthTab, error) {
	f, err := cursor.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	at, err := Decode(f.Cursor)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	at.Path = path
	logging.CorpusOpened("AUTHTAB", path, "corpora", len(at.corpora))
	return at, nil
}

// Read decodes a catalogue from r.
func Read(r io.ReadSeeker) (*AuthTab, error) {
	return Decode(cursor.New(r))
}

// Decode decodes a catalogue from c.
func Decode(c *cursor.Cursor) (*AuthTab, error) {
	at := &AuthTab{}
	for {
		tag, err := c.ReadBytes(4)
		if errors.Is(err, cursor.ErrEndOfInput) {
			break
		}
		if err != nil {
			return nil, errors.NewIO("read", "", err)
		}
		if string(tag) == "*END" {
			break
		}

		pos, err := c.ReadUint16()
		if err != nil {
			return nil, truncated(c, err)
		}
		length, err := c.ReadUint16()
		if err != nil {
			return nil, truncated(c, err)
		}
		if length < recordHeaderLen {
			return nil, errors.NewParse("AUTHTAB", c.Tell(), fmt.Sprintf("corpus length %d shorter than its header", length))
		}

		corpus, err := decodeCorpus(c, int64(length)-recordHeaderLen, string(tag))
		if err != nil {
			return nil, err
		}
		corpus.Pos = pos
		at.corpora = append(at.corpora, corpus)
	}
	return at, nil
}

func truncated(c *cursor.Cursor, err error) error {
	return &errors.ParseError{Format: "AUTHTAB", Offset: c.Tell(), Message: "truncated record", Err: err}
}

func decodeCorpus(c *cursor.Cursor, length int64, tag string) (Corpus, error) {
	corpus := Corpus{Tag: strings.TrimLeft(tag, "*")}

	// The last byte of the body is a delimiter that closes the final entry.
	length--
	start := c.Tell()

	name, err := readName(c)
	if err != nil {
		return corpus, truncated(c, err)
	}
	corpus.Name = name

	var auth *Author
	var orphan Author
	current := func() *Author {
		if auth == nil {
			return &orphan
		}
		return auth
	}

	for length > c.Tell()-start {
		delim, err := c.ReadByte()
		if err != nil {
			return corpus, truncated(c, err)
		}

		switch delim {
		case delimAuthor:
			s, err := c.ReadHighBitString()
			if err != nil {
				return corpus, truncated(c, err)
			}
			if s == "" {
				continue
			}
			if auth != nil {
				corpus.Authors = append(corpus.Authors, *auth)
			}
			auth = newAuthor(s)
		case delimReserved:
			if _, err := c.ReadHighBitString(); err != nil {
				return corpus, truncated(c, err)
			}
		case delimRemarks:
			s, err := c.ReadHighBitString()
			if err != nil {
				return corpus, truncated(c, err)
			}
			current().Comment = s
		case delimAlphabet:
			b, err := c.ReadByte()
			if err != nil {
				return corpus, truncated(c, err)
			}
			current().Alphabet = b
		case delimAlias:
			s, err := c.ReadHighBitString()
			if err != nil {
				return corpus, truncated(c, err)
			}
			if s != "" {
				a := current()
				a.Aliases = append(a.Aliases, s)
			}
		default:
			return corpus, errors.NewParse("AUTHTAB", c.Tell()-1, fmt.Sprintf("unexpected delimiter %#x", delim))
		}
	}
	if auth != nil {
		corpus.Authors = append(corpus.Authors, *auth)
	}

	if _, err := c.ReadByte(); err != nil && !errors.Is(err, cursor.ErrEndOfInput) {
		return corpus, err
	}
	return corpus, nil
}

// readName reads the corpus name. Discs store it either with a length
// byte or as a plain string ending at the first delimiter; a length byte
// is recognised when it matches the string that follows.
func readName(c *cursor.Cursor) (string, error) {
	first, err := c.ReadByte()
	if err != nil {
		return "", err
	}
	if first&0x80 != 0 {
		c.PushBack(first)
		return "", nil
	}
	rest, err := c.ReadHighBitString()
	if err != nil {
		return "", err
	}
	if int(first) == len(rest) {
		return rest, nil
	}
	return string(first) + rest, nil
}

func newAuthor(s string) *Author {
	a := &Author{ID: s}
	if len(s) > 7 {
		a.ID = s[:7]
	}
	if len(s) > 8 {
		a.RawName = s[8:]
	}
	a.Name = Alphabetize(a.RawName)
	return a
}

// Alphabetize moves the part of a name marked with "&1...&" to the front,
// so "Aelius &1Aristides&" becomes "Aristides, Aelius".
func Alphabetize(name string) string {
	m := strings.Index(name, "&1")
	if m < 0 {
		return name
	}
	n := strings.Index(name[m+2:], "&")
	if n < 0 {
		return name
	}
	n += m + 2

	out := name[m+2:n] + name[n+1:]
	if prefix := name[:m]; prefix != "" {
		if sp := strings.LastIndex(prefix, " "); sp >= 0 {
			prefix = prefix[:sp]
		}
		out += ", " + prefix
	}
	return out
}
