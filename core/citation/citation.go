// Package citation implements the nibble-encoded citation keys of PHI/TLG
// text and index files.
//
// A Citation is a sparse, ordered set of levels. Levels 'a' and 'b' hold
// the author and work numbers, 'n' is a flat section counter and 'v'
// through 'z' are the section levels, coarsest first. Levels 'c' and 'd'
// never appear in the ordered set: they carry the work and author
// descriptions. Citations are stored as deltas, so decoding always needs
// the previous citation of the stream.
package citation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/FocuswithJustin/ibycus/core/cursor"
	"github.com/FocuswithJustin/ibycus/core/errors"
)

// Left-nibble level selectors.
const (
	lnZ   = 0x8
	lnY   = 0x9
	lnX   = 0xA
	lnW   = 0xB
	lnV   = 0xC
	lnN   = 0xD
	lnEsc = 0xE
	lnCtl = 0xF
)

// Right-nibble codes of a control byte (left nibble 0xF).
const (
	ctlEndOfFile      = 0x0
	ctlExceptionStart = 0x8
	ctlExceptionEnd   = 0x9
	ctlEndOfBlock     = 0xE
)

// Flag marks a citation record that is a control marker rather than a line.
type Flag int

const (
	NoFlag Flag = iota
	EndOfBlock
	EndOfFile
	ExceptionStart
	ExceptionEnd
)

func (f Flag) String() string {
	switch f {
	case NoFlag:
		return "none"
	case EndOfBlock:
		return "end-of-block"
	case EndOfFile:
		return "end-of-file"
	case ExceptionStart:
		return "exception-start"
	case ExceptionEnd:
		return "exception-end"
	}
	return fmt.Sprintf("Flag(%d)", int(f))
}

// Depth selects how much of a citation SameAs compares.
type Depth int

const (
	DepthAuthor Depth = iota
	DepthWork
	DepthSection
)

// Level is one entry of a citation.
type Level struct {
	Key   byte
	Value Value
}

// Citation is a decoded citation key. The zero value is the empty citation.
// Citations are values: every mutating method copies the level slice first.
type Citation struct {
	levels      []Level
	authDesc    Value
	workDesc    Value
	descriptors map[byte]Value
	flag        Flag
}

// Marker returns an empty citation carrying only a control flag.
func Marker(f Flag) Citation {
	return Citation{flag: f}
}

// New builds a key from section values. Up to five values are bound to the
// finest levels, so New(Num(3), Num(7)) sets y=3 and z=7.
func New(values ...Value) Citation {
	var c Citation
	c.setSections(values)
	return c
}

// WithSections returns a copy of c with the section values bound as in New.
func (c Citation) WithSections(values ...Value) Citation {
	c.setSections(values)
	return c
}

func (c *Citation) setSections(values []Value) {
	for len(values) > 0 && values[len(values)-1].IsNull() {
		values = values[:len(values)-1]
	}
	if len(values) > 5 {
		values = values[len(values)-5:]
	}
	first := byte('z') - byte(len(values)) + 1
	for i, v := range values {
		c.insert(first+byte(i), v)
	}
}

// IsLegalLevel reports whether key may appear in a citation.
func IsLegalLevel(key byte) bool {
	return (key >= 'a' && key <= 'd') || key == 'n' || (key >= 'v' && key <= 'z')
}

// Set inserts a level. Setting 'a', 'b' or 'n' removes every finer level;
// setting one of 'v'..'y' resets every finer section level to 1. 'c' and
// 'd' set the work and author descriptions.
func (c *Citation) Set(key byte, v Value) error {
	if !IsLegalLevel(key) {
		return &errors.ValidationError{
			Field:   "level",
			Value:   string(key),
			Message: fmt.Sprintf("%q is not a citation level", key),
		}
	}
	c.insert(key, v)
	return nil
}

func (c *Citation) insert(key byte, v Value) {
	switch key {
	case 'c':
		c.workDesc = v
		return
	case 'd':
		c.authDesc = v
		return
	}

	c.levels = slices.Clone(c.levels)
	i, found := c.find(key)
	if found {
		c.levels[i].Value = v
	} else {
		c.levels = slices.Insert(c.levels, i, Level{Key: key, Value: v})
	}

	switch {
	case key <= 'b' || key == 'n':
		c.levels = c.levels[:i+1]
	case key >= 'v':
		for k := key + 1; k <= 'z'; k++ {
			c.put(k, Num(1))
		}
	}
}

func (c *Citation) put(key byte, v Value) {
	i, found := c.find(key)
	if found {
		c.levels[i].Value = v
		return
	}
	c.levels = slices.Insert(c.levels, i, Level{Key: key, Value: v})
}

// find returns the index of key, or the insertion point when absent.
func (c Citation) find(key byte) (int, bool) {
	return slices.BinarySearchFunc(c.levels, key, func(l Level, k byte) int {
		return int(l.Key) - int(k)
	})
}

// Get returns the value of a level.
func (c Citation) Get(key byte) (Value, bool) {
	if i, ok := c.find(key); ok {
		return c.levels[i].Value, true
	}
	return Value{}, false
}

// ID returns the rendered value of a level.
func (c Citation) ID(key byte) (string, error) {
	v, ok := c.Get(key)
	if !ok {
		return "", errors.NewNotFound("level", string(key))
	}
	return v.String(), nil
}

// Levels returns a copy of the ordered levels.
func (c Citation) Levels() []Level {
	return slices.Clone(c.levels)
}

// Len returns the number of levels.
func (c Citation) Len() int { return len(c.levels) }

// Flag returns the control flag.
func (c Citation) Flag() Flag { return c.flag }

// AuthorDesc returns the author description carried by level 'd'.
func (c Citation) AuthorDesc() Value { return c.authDesc }

// WorkDesc returns the work description carried by level 'c'.
func (c Citation) WorkDesc() Value { return c.workDesc }

// Descriptor returns a descriptor value (ESC followed by a letter).
func (c Citation) Descriptor(key byte) (Value, bool) {
	v, ok := c.descriptors[key]
	return v, ok
}

// SetDescriptor stores a descriptor value under a letter key.
func (c *Citation) SetDescriptor(key byte, v Value) {
	d := make(map[byte]Value, len(c.descriptors)+1)
	for k, dv := range c.descriptors {
		d[k] = dv
	}
	d[key] = v
	c.descriptors = d
}

// IsNull reports whether the citation has no levels.
func (c Citation) IsNull() bool {
	return len(c.levels) == 0
}

// IsTitle reports whether any level below the work is a title marker.
func (c Citation) IsTitle() bool {
	for _, l := range c.levels {
		if l.Key > 'b' && l.Value.IsTitle() {
			return true
		}
	}
	return false
}

// Compare orders citations lexicographically by level key, then value.
func Compare(a, b Citation) int {
	n := min(len(a.levels), len(b.levels))
	for i := 0; i < n; i++ {
		la, lb := a.levels[i], b.levels[i]
		if la.Key != lb.Key {
			if la.Key < lb.Key {
				return -1
			}
			return 1
		}
		if c := la.Value.Compare(lb.Value); c != 0 {
			return c
		}
	}
	switch {
	case len(a.levels) < len(b.levels):
		return -1
	case len(a.levels) > len(b.levels):
		return 1
	}
	return 0
}

// Less reports whether c sorts before o.
func (c Citation) Less(o Citation) bool {
	return Compare(c, o) < 0
}

// Equal reports whether both citations have the same flag and levels.
func (c Citation) Equal(o Citation) bool {
	return c.flag == o.flag && slices.Equal(c.levels, o.levels)
}

// SameAs reports whether o starts with the levels of c up to depth. At
// DepthSection the bound is the first level below the work.
func (c Citation) SameAs(o Citation, depth Depth) bool {
	var bound byte
	switch depth {
	case DepthAuthor:
		bound = 'a'
	case DepthWork:
		bound = 'b'
	default:
		i, _ := c.find('c')
		if i >= len(c.levels) {
			bound = 'b'
		} else {
			bound = c.levels[i].Key
		}
	}

	n, _ := c.find(bound + 1)
	if n > len(o.levels) {
		return false
	}
	return slices.Equal(c.levels[:n], o.levels[:n])
}

// Read decodes a citation record from c relative to prev. Levels absent
// from the record keep their value from prev. A control byte ends the record
// and sets the flag; a byte without the high bit set is pushed back as the
// start of the text. At end of input the result is flagged EndOfFile.
func Read(c *cursor.Cursor, prev Citation) (Citation, error) {
	id := Citation{
		levels:   slices.Clone(prev.levels),
		authDesc: prev.authDesc,
		workDesc: prev.workDesc,
	}

	for tags := 0; ; tags++ {
		ch, err := c.ReadByte()
		if err != nil {
			if errors.Is(err, cursor.ErrEndOfInput) {
				if tags == 0 {
					id.flag = EndOfFile
				}
				return id, nil
			}
			return id, err
		}
		if ch&0x80 == 0 {
			c.PushBack(ch)
			return id, nil
		}

		switch ch >> 4 {
		case lnEsc:
			lb, err := c.ReadByte()
			if err != nil {
				return id, truncated(c, err)
			}
			lb &= lowBits
			var key byte
			switch {
			case lb <= 3:
				key = 'a' + lb
			case lb >= 'a' && lb <= 'z':
				v, err := DecodeValue(c, ch, Value{})
				if err != nil {
					return id, err
				}
				if id.descriptors == nil {
					id.descriptors = make(map[byte]Value)
				}
				id.descriptors[lb] = v
				continue
			default:
				return id, errors.NewParse("citation", c.Tell(), fmt.Sprintf("unhandled level byte %#x after %#x", lb, ch))
			}
			if err := id.decodeLevel(c, ch, key); err != nil {
				return id, err
			}
		case lnCtl:
			switch ch & 0x0F {
			case ctlEndOfFile:
				id.flag = EndOfFile
			case ctlEndOfBlock:
				id.flag = EndOfBlock
			case ctlExceptionStart:
				id.flag = ExceptionStart
			case ctlExceptionEnd:
				id.flag = ExceptionEnd
			default:
				return id, errors.NewParse("citation", c.Tell(), fmt.Sprintf("unhandled code %#x", ch))
			}
			return id, nil
		default:
			key := [...]byte{lnZ: 'z', lnY: 'y', lnX: 'x', lnW: 'w', lnV: 'v', lnN: 'n'}[ch>>4]
			if err := id.decodeLevel(c, ch, key); err != nil {
				return id, err
			}
		}
	}
}

func (id *Citation) decodeLevel(c *cursor.Cursor, tag, key byte) error {
	// Descriptions never serve as a base: an increment or new character on
	// level c or d starts from a blank value.
	var base Value
	if key != 'c' && key != 'd' {
		base, _ = id.Get(key)
	}
	v, err := DecodeValue(c, tag, base)
	if err != nil {
		return err
	}
	id.insert(key, v)
	return nil
}

func truncated(c *cursor.Cursor, err error) error {
	return &errors.ParseError{Format: "citation", Offset: c.Tell(), Message: "truncated record", Err: err}
}

// String joins the non-null levels with '.'.
func (c Citation) String() string {
	parts := make([]string, 0, len(c.levels))
	for _, l := range c.levels {
		if !l.Value.IsNull() {
			parts = append(parts, l.Value.String())
		}
	}
	return strings.Join(parts, ".")
}
