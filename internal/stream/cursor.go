// Package stream provides a bounds-checked byte cursor for parsing mangled names.
package stream

import (
	"errors"
	"math"
)

// Errors returned by Cursor
var (
	ErrUnexpectedEnd = errors.New("stream: unexpected end of input")
	ErrNotNumber     = errors.New("stream: expected number")
	ErrOverflow      = errors.New("stream: number overflows int")
)

// Cursor is a position-tracking view over an immutable byte string.
// It never reads past the end of its data.
type Cursor struct {
	data   string
	offset int
}

// NewCursor creates a Cursor positioned at the start of data.
func NewCursor(data string) *Cursor {
	return &Cursor{data: data}
}

// Offset returns the current read position.
func (c *Cursor) Offset() int {
	return c.offset
}

// Len returns the total length of the underlying data.
func (c *Cursor) Len() int {
	return len(c.data)
}

// Remaining returns the number of bytes remaining.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.offset
}

// EOF reports whether all input has been consumed.
func (c *Cursor) EOF() bool {
	return c.offset >= len(c.data)
}

// Peek returns the next byte without consuming it.
func (c *Cursor) Peek() (byte, bool) {
	return c.PeekAt(0)
}

// PeekAt returns the byte n positions ahead without consuming anything.
func (c *Cursor) PeekAt(n int) (byte, bool) {
	i := c.offset + n
	if n < 0 || i >= len(c.data) {
		return 0, false
	}
	return c.data[i], true
}

// PeekByte is Peek without the presence flag; it returns 0 at end of input.
func (c *Cursor) PeekByte() byte {
	b, _ := c.Peek()
	return b
}

// Next consumes and returns one byte.
func (c *Cursor) Next() (byte, error) {
	if c.offset >= len(c.data) {
		return 0, ErrUnexpectedEnd
	}
	b := c.data[c.offset]
	c.offset++
	return b, nil
}

// Advance consumes n bytes.
func (c *Cursor) Advance(n int) error {
	if n < 0 || c.offset+n > len(c.data) {
		return ErrUnexpectedEnd
	}
	c.offset += n
	return nil
}

// Match consumes s if the input continues with it.
func (c *Cursor) Match(s string) bool {
	if len(c.data)-c.offset < len(s) || c.data[c.offset:c.offset+len(s)] != s {
		return false
	}
	c.offset += len(s)
	return true
}

// MatchByte consumes b if it is the next byte.
func (c *Cursor) MatchByte(b byte) bool {
	if c.offset < len(c.data) && c.data[c.offset] == b {
		c.offset++
		return true
	}
	return false
}

// Take consumes n bytes and returns them.
func (c *Cursor) Take(n int) (string, error) {
	if n < 0 || c.offset+n > len(c.data) {
		return "", ErrUnexpectedEnd
	}
	s := c.data[c.offset : c.offset+n]
	c.offset += n
	return s, nil
}

// ReadNumber parses a non-negative decimal number from a maximal digit run.
func (c *Cursor) ReadNumber() (int, error) {
	if c.offset >= len(c.data) {
		return 0, ErrUnexpectedEnd
	}
	start := c.offset
	val := 0
	for c.offset < len(c.data) {
		b := c.data[c.offset]
		if b < '0' || b > '9' {
			break
		}
		d := int(b - '0')
		if val > (math.MaxInt-d)/10 {
			return 0, ErrOverflow
		}
		val = val*10 + d
		c.offset++
	}
	if c.offset == start {
		return 0, ErrNotNumber
	}
	return val, nil
}

// ReadBase36 parses a number written with digits and upper-case letters,
// as used by substitution back-references.
func (c *Cursor) ReadBase36() (int, error) {
	if c.offset >= len(c.data) {
		return 0, ErrUnexpectedEnd
	}
	start := c.offset
	val := 0
	for c.offset < len(c.data) {
		b := c.data[c.offset]
		var d int
		switch {
		case b >= '0' && b <= '9':
			d = int(b - '0')
		case b >= 'A' && b <= 'Z':
			d = int(b-'A') + 10
		default:
			if c.offset == start {
				return 0, ErrNotNumber
			}
			return val, nil
		}
		if val > (math.MaxInt-d)/36 {
			return 0, ErrOverflow
		}
		val = val*36 + d
		c.offset++
	}
	if c.offset == start {
		return 0, ErrNotNumber
	}
	return val, nil
}

// Rest returns the unread input without consuming it.
func (c *Cursor) Rest() string {
	if c.offset >= len(c.data) {
		return ""
	}
	return c.data[c.offset:]
}

// Slice returns data[start:c.Offset()].
func (c *Cursor) Slice(start int) string {
	if start < 0 || start > c.offset {
		return ""
	}
	return c.data[start:c.offset]
}
