package citation

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ibycus/core/cursor"
	"github.com/FocuswithJustin/ibycus/core/errors"
)

// Right-nibble value encodings.
const (
	rnIncrement  = 0x0
	rn7Bit       = 0x8
	rn7BitChar   = 0x9
	rn7BitString = 0xA
	rn14Bit      = 0xB
	rn14BitChar  = 0xC
	rn14BitStr   = 0xD
	rnNewChar    = 0xE
	rnString     = 0xF
)

const lowBits = 0x7F

// Value is one level of a citation: a binary number with an optional
// ASCII suffix, e.g. 12, 12a, or the title marker "t".
type Value struct {
	Binary uint32
	ASCII  string
}

// Num returns a purely numeric value.
func Num(n uint32) Value {
	return Value{Binary: n}
}

// IsNull reports whether the value carries neither a number nor text.
func (v Value) IsNull() bool {
	return v.Binary == 0 && v.ASCII == ""
}

// IsTitle reports whether the value is the title marker.
func (v Value) IsTitle() bool {
	return v.Binary == 0 && v.ASCII == "t"
}

func (v Value) String() string {
	if v.Binary == 0 {
		return v.ASCII
	}
	return strconv.FormatUint(uint64(v.Binary), 10) + v.ASCII
}

// Compare orders titles first, then by number, then by suffix.
func (v Value) Compare(o Value) int {
	vt, ot := v.IsTitle(), o.IsTitle()
	switch {
	case vt && ot:
		return 0
	case vt:
		return -1
	case ot:
		return 1
	}
	switch {
	case v.Binary < o.Binary:
		return -1
	case v.Binary > o.Binary:
		return 1
	}
	return strings.Compare(v.ASCII, o.ASCII)
}

// Less reports whether v sorts before o.
func (v Value) Less(o Value) bool {
	return v.Compare(o) < 0
}

// Next returns the value that follows v in an increment record.
func (v Value) Next() Value {
	if v.ASCII == "" || v.Binary != 0 {
		return Value{Binary: v.Binary + 1}
	}
	pos := strings.IndexAny(v.ASCII, "0123456789")
	if pos < 0 {
		b := []byte(v.ASCII)
		b[len(b)-1]++
		return Value{ASCII: string(b)}
	}
	end := pos
	for end < len(v.ASCII) && v.ASCII[end] >= '0' && v.ASCII[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(v.ASCII[pos:end])
	return Value{ASCII: v.ASCII[:pos] + strconv.Itoa(n+1)}
}

// DecodeValue decodes the value whose encoding is selected by the right
// nibble of tag, reading any data bytes from c. prev is the value the same
// level had in the previous citation.
func DecodeValue(c *cursor.Cursor, tag byte, prev Value) (Value, error) {
	var v Value
	var err error

	switch tag & 0x0F {
	case rnIncrement:
		return prev.Next(), nil
	case rn7Bit:
		v.Binary, err = read7(c)
	case rn7BitChar:
		if v.Binary, err = read7(c); err == nil {
			v.ASCII, err = readChar(c)
		}
	case rn7BitString:
		if v.Binary, err = read7(c); err == nil {
			v.ASCII, err = c.ReadMaskedString()
		}
	case rn14Bit:
		v.Binary, err = read14(c)
	case rn14BitChar:
		if v.Binary, err = read14(c); err == nil {
			v.ASCII, err = readChar(c)
		}
	case rn14BitStr:
		if v.Binary, err = read14(c); err == nil {
			v.ASCII, err = c.ReadMaskedString()
		}
	case rnNewChar:
		v.Binary = prev.Binary
		v.ASCII, err = readChar(c)
	case rnString:
		v.ASCII, err = c.ReadMaskedString()
	default:
		v.Binary = uint32(tag & 0x0F)
	}
	if err != nil {
		return Value{}, &errors.ParseError{
			Format:  "citation",
			Offset:  c.Tell(),
			Message: "truncated value",
			Err:     err,
		}
	}
	return v, nil
}

func read7(c *cursor.Cursor) (uint32, error) {
	b, err := c.ReadByte()
	return uint32(b & lowBits), err
}

func read14(c *cursor.Cursor) (uint32, error) {
	hi, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	lo, err := c.ReadByte()
	return uint32(hi&lowBits)<<7 + uint32(lo&lowBits), err
}

func readChar(c *cursor.Cursor) (string, error) {
	b, err := c.ReadByte()
	if err != nil {
		return "", err
	}
	return string(rune(b & lowBits)), nil
}
