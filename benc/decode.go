// Package benc decodes bencode, the self-delimiting format of integers,
// byte strings, lists and dicts, from an in-memory buffer.
package benc

import (
	"errors"
	"strconv"
)

// A Decoder decodes a sequence of concatenated bencode values from
// an in-memory buffer. It is not safe for concurrent use; separate
// Decoders over the same buffer are.
type Decoder struct {
	cur          cursor
	start        int
	maxLength    int
	maxStrLength int
	maxDepth     int
	depth        int
	strict       bool
	err          error
}

// Decode decodes the value starting at buf[offset]. It returns the value
// and the number of bytes it spans, so the next value of a stream starts
// at offset+n.
func Decode(buf []byte, offset int) (Value, int, error) {
	if offset < 0 || offset > len(buf) {
		return Value{}, 0, newErrorf(ErrKindUnexpectedEnd, offset, "offset outside buffer of %d bytes", len(buf))
	}
	dec := NewDecoder(buf)
	dec.cur.pos = offset
	v, err := dec.Decode()
	if err != nil {
		return Value{}, 0, err
	}
	return v, dec.cur.pos - offset, nil
}

// DecodeString is Decode for text input. Each byte of s is taken as is.
func DecodeString(s string, offset int) (Value, int, error) {
	return Decode([]byte(s), offset)
}

// Unmarshal decodes buf, which must hold exactly one value.
func Unmarshal(buf []byte) (Value, error) {
	v, n, err := Decode(buf, 0)
	if err != nil {
		return Value{}, err
	}
	if n < len(buf) {
		return Value{}, newErrorf(ErrKindTrailingData, n, "%d bytes after value", len(buf)-n)
	}
	return v, nil
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{
		cur:          cursor{buf: buf},
		maxLength:    MaxLength,
		maxStrLength: MaxStringLength,
		maxDepth:     MaxDepth,
	}
}

// SetMaxLength sets the max number of bytes one top-level value may span.
// A non-positive length restores the default MaxLength.
func (dec *Decoder) SetMaxLength(length int) {
	if length <= 0 {
		dec.maxLength = MaxLength
	} else {
		dec.maxLength = length
	}
}

// SetMaxStringLength sets the max content length of a byte string.
func (dec *Decoder) SetMaxStringLength(length int) {
	if length < 0 {
		dec.maxStrLength = MaxStringLength
	} else {
		dec.maxStrLength = length
	}
}

// SetMaxDepth sets the max nesting of lists and dicts.
// 0 allows only integers and strings.
func (dec *Decoder) SetMaxDepth(depth int) {
	if depth < 0 {
		dec.maxDepth = MaxDepth
	} else {
		dec.maxDepth = depth
	}
}

// SetStrict makes the decoder reject input that is not in canonical form:
// integers and lengths with leading zeros, "-0", and dict keys that are
// not strictly increasing.
func (dec *Decoder) SetStrict(strict bool) {
	dec.strict = strict
}

// More reports whether there are bytes left to decode and no error so far.
func (dec *Decoder) More() bool {
	return dec.err == nil && dec.cur.left() > 0
}

// Pos returns the offset of the next byte to decode.
func (dec *Decoder) Pos() int {
	return dec.cur.pos
}

// Raw returns the encoded bytes of the value last returned by Decode.
// The slice aliases the input buffer.
func (dec *Decoder) Raw() []byte {
	if dec.err != nil {
		return nil
	}
	return dec.cur.buf[dec.start:dec.cur.pos]
}

// Decode decodes the next top-level value. Once Decode fails,
// every later call returns the same error.
func (dec *Decoder) Decode() (Value, error) {
	if dec.err != nil {
		return Value{}, dec.err
	}
	dec.start = dec.cur.pos
	dec.depth = 0
	v := dec.decodeValue()
	if dec.err != nil {
		return Value{}, dec.err
	}
	return v, nil
}

// consumed checks that the current top-level value, if it ends at end,
// stays within maxLength.
func (dec *Decoder) consumed(end int) bool {
	if end-dec.start > dec.maxLength {
		dec.err = newErrorf(ErrKindLengthOverflow, dec.start, "value longer than %d bytes", dec.maxLength)
		return false
	}
	return true
}

func (dec *Decoder) decodeValue() Value {
	c, ok := dec.cur.peek()
	if !ok {
		dec.err = newError(ErrKindUnexpectedEnd, dec.cur.pos, "expecting a value")
		return Value{}
	}

	switch tagKind(c) {
	case BENC_INTEGER:
		return dec.decodeInteger()
	case BENC_STRING:
		return dec.decodeBytes()
	case BENC_LIST:
		return dec.decodeList()
	case BENC_DICT:
		return dec.decodeDict()
	}

	dec.err = newErrorf(ErrKindUnknownTag, dec.cur.pos, "byte %q", c)
	return Value{}
}

func validLiteral(lit []byte) bool {
	if len(lit) > 0 && lit[0] == TAG_MINUS {
		lit = lit[1:]
	}
	if len(lit) == 0 {
		return false
	}
	for _, c := range lit {
		if !isDigit(c) {
			return false
		}
	}
	return true
}

// canonicalLiteral expects a literal that already passed validLiteral.
func canonicalLiteral(lit []byte) bool {
	if lit[0] == TAG_MINUS {
		return lit[1] != '0'
	}
	return len(lit) == 1 || lit[0] != '0'
}

func (dec *Decoder) decodeInteger() Value {
	start := dec.cur.pos
	dec.cur.skip(1)
	end := dec.cur.findDelimiter(TAG_END)
	if end < 0 {
		dec.err = newError(ErrKindUnterminatedValue, start, "integer has no 'e'")
		return Value{}
	}
	if !dec.consumed(end + 1) {
		return Value{}
	}

	lit := dec.cur.span(end)
	if !validLiteral(lit) {
		dec.err = newErrorf(ErrKindInvalidLiteral, start+1, "%q", lit)
		return Value{}
	}
	if dec.strict && !canonicalLiteral(lit) {
		dec.err = newErrorf(ErrKindNonCanonical, start+1, "integer %q", lit)
		return Value{}
	}

	n, err := strconv.ParseInt(string(lit), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			dec.err = newErrorf(ErrKindIntegerOverflow, start+1, "%s", lit)
		} else {
			dec.err = newErrorf(ErrKindInvalidLiteral, start+1, "%q", lit)
		}
		return Value{}
	}
	return MakeInteger(n)
}

func parseLength(prefix []byte) (int, bool) {
	if len(prefix) == 0 {
		return 0, false
	}
	for _, c := range prefix {
		if !isDigit(c) {
			return 0, false
		}
	}
	n, err := strconv.Atoi(string(prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (dec *Decoder) decodeBytes() Value {
	start := dec.cur.pos
	colon := dec.cur.findDelimiter(TAG_COLON)
	if colon < 0 {
		dec.err = newError(ErrKindMissingDelimiter, start, "string length has no ':'")
		return Value{}
	}

	prefix := dec.cur.span(colon)
	n, ok := parseLength(prefix)
	if !ok {
		dec.err = newErrorf(ErrKindInvalidLength, start, "%q", prefix)
		return Value{}
	}
	if dec.strict && len(prefix) > 1 && prefix[0] == '0' {
		dec.err = newErrorf(ErrKindNonCanonical, start, "string length %q", prefix)
		return Value{}
	}
	if n > dec.cur.left() {
		dec.err = newErrorf(ErrKindUnexpectedEnd, dec.cur.pos, "string needs %d bytes, %d left", n, dec.cur.left())
		return Value{}
	}
	if n > dec.maxStrLength {
		dec.err = newErrorf(ErrKindLengthOverflow, start, "string of %d bytes, max %d", n, dec.maxStrLength)
		return Value{}
	}
	if !dec.consumed(dec.cur.pos + n) {
		return Value{}
	}

	content, _ := dec.cur.takeExact(n)
	return MakeBytes(content)
}

func (dec *Decoder) enter() bool {
	dec.depth++
	if dec.depth > dec.maxDepth {
		dec.err = newErrorf(ErrKindDepthOverflow, dec.cur.pos, "max %d", dec.maxDepth)
		return false
	}
	return true
}

// leave consumes the terminator of a container.
func (dec *Decoder) leave() bool {
	if !dec.consumed(dec.cur.pos + 1) {
		return false
	}
	dec.cur.skip(1)
	dec.depth--
	return true
}

func (dec *Decoder) decodeList() Value {
	start := dec.cur.pos
	if !dec.enter() {
		return Value{}
	}
	dec.cur.skip(1)

	list := make([]Value, 0)
	for {
		c, ok := dec.cur.peek()
		if !ok {
			dec.err = newError(ErrKindUnterminatedContainer, start, "list has no 'e'")
			return Value{}
		}
		if c == TAG_END {
			if !dec.leave() {
				return Value{}
			}
			break
		}

		x := dec.decodeValue()
		if dec.err != nil {
			return Value{}
		}
		list = append(list, x)
	}
	return Value{kind: BENC_LIST, list: list}
}

func (dec *Decoder) decodeDict() Value {
	start := dec.cur.pos
	if !dec.enter() {
		return Value{}
	}
	dec.cur.skip(1)

	d := newDict(0)
	last := ""
	for {
		c, ok := dec.cur.peek()
		if !ok {
			dec.err = newError(ErrKindUnterminatedContainer, start, "dict has no 'e'")
			return Value{}
		}
		if c == TAG_END {
			if !dec.leave() {
				return Value{}
			}
			break
		}

		switch c {
		case TAG_INTEGER, TAG_LIST, TAG_DICT:
			dec.err = newErrorf(ErrKindInvalidKeyType, dec.cur.pos, "key is %s", tagKind(c))
			return Value{}
		}

		keyPos := dec.cur.pos
		key := dec.decodeBytes()
		if dec.err != nil {
			return Value{}
		}
		if dec.strict && d.Len() > 0 && key.str <= last {
			dec.err = newErrorf(ErrKindNonCanonical, keyPos, "key %q after %q", key.str, last)
			return Value{}
		}

		x := dec.decodeValue()
		if dec.err != nil {
			return Value{}
		}
		d.set(key.str, x)
		last = key.str
	}
	return Value{kind: BENC_DICT, dict: d}
}
