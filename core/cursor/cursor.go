// Package cursor provides the positionable byte reader shared by the
// AUTHTAB, IDT and TXT decoders.
//
// A Cursor keeps its own offset so that a single pushed-back byte and the
// buffered reader never disagree about the current position.
package cursor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEndOfInput is returned when a read runs past the end of the source.
var ErrEndOfInput = errors.New("end of input")

// Cursor is a byte reader over a seekable source. It is not safe for
// concurrent use.
type Cursor struct {
	src     io.ReadSeeker
	buf     *bufio.Reader
	pos     int64
	pending int // -1 when no byte is pushed back
}

// New returns a Cursor positioned at the start of r.
func New(r io.ReadSeeker) *Cursor {
	return &Cursor{
		src:     r,
		buf:     bufio.NewReaderSize(r, 16*1024),
		pending: -1,
	}
}

// NewBytes returns a Cursor over an in-memory buffer.
func NewBytes(b []byte) *Cursor {
	return New(bytes.NewReader(b))
}

// File is a Cursor that owns the file it reads.
type File struct {
	*Cursor
	f    *os.File
	Path string
}

// Open opens path for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{Cursor: New(f), f: f, Path: path}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}

// Tell returns the offset of the next byte to be read.
func (c *Cursor) Tell() int64 {
	return c.pos
}

// Seek moves to an absolute offset and discards any pushed-back byte.
func (c *Cursor) Seek(off int64) error {
	if _, err := c.src.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to %d: %w", off, err)
	}
	c.buf.Reset(c.src)
	c.pos = off
	c.pending = -1
	return nil
}

// Len returns the size of the source in bytes.
func (c *Cursor) Len() (int64, error) {
	end, err := c.src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if err := c.Seek(c.pos); err != nil {
		return 0, err
	}
	return end, nil
}

// ReadByte returns the next byte or ErrEndOfInput.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pending >= 0 {
		b := byte(c.pending)
		c.pending = -1
		c.pos++
		return b, nil
	}
	b, err := c.buf.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrEndOfInput
		}
		return 0, err
	}
	c.pos++
	return b, nil
}

// PushBack returns b to the stream so the next ReadByte yields it again.
// Only one byte may be pending at a time.
func (c *Cursor) PushBack(b byte) {
	if c.pending >= 0 {
		panic("cursor: PushBack called twice without an intervening read")
	}
	c.pending = int(b)
	c.pos--
}

// Peek returns the next byte without consuming it.
func (c *Cursor) Peek() (byte, error) {
	b, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	c.PushBack(b)
	return b, nil
}

// ReadUint16 reads a big-endian 16-bit integer.
func (c *Cursor) ReadUint16() (uint16, error) {
	hi, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	lo, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// ReadBytes reads exactly n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		b, err := c.ReadByte()
		if err != nil {
			return out[:i], err
		}
		out[i] = b
	}
	return out, nil
}

// ReadHighBitString reads bytes up to the next byte with the high bit set,
// which is pushed back. End of input ends the string without error.
func (c *Cursor) ReadHighBitString() (string, error) {
	var sb []byte
	for {
		b, err := c.ReadByte()
		if errors.Is(err, ErrEndOfInput) {
			return string(sb), nil
		}
		if err != nil {
			return string(sb), err
		}
		if b&0x80 != 0 {
			c.PushBack(b)
			return string(sb), nil
		}
		sb = append(sb, b)
	}
}

// ReadLenString reads a one-byte length followed by that many bytes.
func (c *Cursor) ReadLenString() (string, error) {
	n, err := c.ReadByte()
	if err != nil {
		return "", err
	}
	b, err := c.ReadBytes(int(n))
	return string(b), err
}

// ReadMaskedString reads bytes with their high bit cleared until a 0xFF
// terminator, which is consumed.
func (c *Cursor) ReadMaskedString() (string, error) {
	var sb []byte
	for {
		b, err := c.ReadByte()
		if err != nil {
			return string(sb), err
		}
		if b == 0xFF {
			return string(sb), nil
		}
		sb = append(sb, b&0x7F)
	}
}
