package benc

import (
	"bytes"
)

// cursor is a read-only view over buf. Only pos moves.
type cursor struct {
	buf []byte
	pos int
}

// left returns the number of bytes not yet consumed.
func (c *cursor) left() int {
	return len(c.buf) - c.pos
}

// peek returns the next byte without consuming it.
// false is returned at the end of input.
func (c *cursor) peek() (byte, bool) {
	if c.pos < len(c.buf) {
		return c.buf[c.pos], true
	}
	return 0, false
}

func (c *cursor) skip(n int) {
	c.pos += n
}

// findDelimiter returns the absolute offset of the next b at or after pos,
// or -1 if there is none.
func (c *cursor) findDelimiter(b byte) int {
	if c.pos >= len(c.buf) {
		return -1
	}
	i := bytes.IndexByte(c.buf[c.pos:], b)
	if i < 0 {
		return -1
	}
	return c.pos + i
}

// span returns buf[pos:end] and moves pos past end+1, the delimiter.
func (c *cursor) span(end int) []byte {
	s := c.buf[c.pos:end]
	c.pos = end + 1
	return s
}

// takeExact consumes exactly n bytes. The returned slice aliases buf.
func (c *cursor) takeExact(n int) ([]byte, bool) {
	if n < 0 || n > c.left() {
		return nil, false
	}
	s := c.buf[c.pos : c.pos+n]
	c.pos += n
	return s, true
}
