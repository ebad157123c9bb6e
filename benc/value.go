package benc

import (
	"strconv"
	"strings"
)

// Value is one decoded bencode value: an integer, a byte string,
// a list or a dict. Use Kind to tell which, or Accept to handle
// every kind exhaustively.
// A Value is never modified after it is made.
type Value struct {
	kind Kind
	num  int64
	str  string
	list []Value
	dict *Dict
}

// Visitor handles each of the four kinds. Adding a kind adds a method,
// so every implementation must handle it.
type Visitor interface {
	VisitInteger(n int64) error
	VisitString(s string) error
	VisitList(items []Value) error
	VisitDict(d *Dict) error
}

// Accept calls the method of vis matching the kind of v.
// It panics if v is the zero Value; decoding never produces one.
func (v Value) Accept(vis Visitor) error {
	switch v.kind {
	case BENC_INTEGER:
		return vis.VisitInteger(v.num)
	case BENC_STRING:
		return vis.VisitString(v.str)
	case BENC_LIST:
		return vis.VisitList(v.Items())
	case BENC_DICT:
		return vis.VisitDict(v.dict)
	}
	panic("benc: Accept on invalid Value")
}

func MakeInteger(n int64) Value {
	return Value{kind: BENC_INTEGER, num: n}
}

func MakeString(s string) Value {
	return Value{kind: BENC_STRING, str: s}
}

// MakeBytes copies b.
func MakeBytes(b []byte) Value {
	return Value{kind: BENC_STRING, str: string(b)}
}

// MakeList copies items.
func MakeList(items ...Value) Value {
	list := make([]Value, len(items))
	copy(list, items)
	return Value{kind: BENC_LIST, list: list}
}

// MakeDict builds a dict from pairs in order.
// A repeated key replaces the earlier value but keeps its position.
func MakeDict(pairs ...Pair) Value {
	d := newDict(len(pairs))
	for _, p := range pairs {
		d.set(p.Key, p.Value)
	}
	return Value{kind: BENC_DICT, dict: d}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsValid() bool {
	return v.kind != BENC_INVALID
}

// Int returns the integer and true if v is an integer.
func (v Value) Int() (int64, bool) {
	return v.num, v.kind == BENC_INTEGER
}

// Str returns the raw bytes of a byte string as a Go string.
// The content need not be valid UTF-8.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == BENC_STRING
}

// Bytes returns a copy of the content of a byte string.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != BENC_STRING {
		return nil, false
	}
	return []byte(v.str), true
}

// Len returns the number of bytes, items or pairs.
// It is 0 for an integer.
func (v Value) Len() int {
	switch v.kind {
	case BENC_STRING:
		return len(v.str)
	case BENC_LIST:
		return len(v.list)
	case BENC_DICT:
		return v.dict.Len()
	}
	return 0
}

// Index returns the i-th item of a list.
func (v Value) Index(i int) Value {
	if v.kind != BENC_LIST || i < 0 || i >= len(v.list) {
		return Value{}
	}
	return v.list[i]
}

// Items returns a copy of the items of a list, nil for other kinds.
func (v Value) Items() []Value {
	if v.kind != BENC_LIST {
		return nil
	}
	items := make([]Value, len(v.list))
	copy(items, v.list)
	return items
}

func (v Value) Dict() (*Dict, bool) {
	return v.dict, v.kind == BENC_DICT
}

// Get looks up key in a dict.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != BENC_DICT {
		return Value{}, false
	}
	return v.dict.Get(key)
}

// Equal reports whether v and o have the same structure.
// Dict pairs must also be in the same order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case BENC_INTEGER:
		return v.num == o.num
	case BENC_STRING:
		return v.str == o.str
	case BENC_LIST:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case BENC_DICT:
		return v.dict.equal(o.dict)
	}
	return true
}

// Interface converts v to plain Go values: int64, []byte, []any
// and map[string]any. Dict order is lost.
func (v Value) Interface() any {
	switch v.kind {
	case BENC_INTEGER:
		return v.num
	case BENC_STRING:
		return []byte(v.str)
	case BENC_LIST:
		s := make([]any, len(v.list))
		for i, x := range v.list {
			s[i] = x.Interface()
		}
		return s
	case BENC_DICT:
		m := make(map[string]any, v.dict.Len())
		v.dict.Each(func(key string, x Value) bool {
			m[key] = x.Interface()
			return true
		})
		return m
	}
	return nil
}

// String returns a compact human readable form, not the encoding.
func (v Value) String() string {
	var sb strings.Builder
	v.appendString(&sb)
	return sb.String()
}

func (v Value) appendString(sb *strings.Builder) {
	switch v.kind {
	case BENC_INTEGER:
		sb.WriteString(strconv.FormatInt(v.num, 10))
	case BENC_STRING:
		sb.WriteString(strconv.Quote(v.str))
	case BENC_LIST:
		sb.WriteByte('[')
		for i, x := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			x.appendString(sb)
		}
		sb.WriteByte(']')
	case BENC_DICT:
		sb.WriteByte('{')
		i := 0
		v.dict.Each(func(key string, x Value) bool {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(key))
			sb.WriteString(": ")
			x.appendString(sb)
			i++
			return true
		})
		sb.WriteByte('}')
	default:
		sb.WriteString("<invalid>")
	}
}
