package benc

import (
	"github.com/elliotchance/orderedmap/v3"
)

// Pair is one key/value entry of a Dict.
type Pair struct {
	Key   string
	Value Value
}

// Dict maps raw byte-string keys to values and remembers the order
// in which keys were first seen.
type Dict struct {
	m *orderedmap.OrderedMap[string, Value]
}

func newDict(capacity int) *Dict {
	return &Dict{m: orderedmap.NewOrderedMapWithCapacity[string, Value](capacity)}
}

// set stores v under key. It returns false if key was already present,
// in which case the old value is replaced in place.
func (d *Dict) set(key string, v Value) bool {
	return d.m.Set(key, v)
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return d.m.Len()
}

func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	return d.m.Get(key)
}

func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Keys returns the keys in order.
func (d *Dict) Keys() []string {
	keys := make([]string, 0, d.Len())
	d.Each(func(key string, _ Value) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Pairs returns the entries in order.
func (d *Dict) Pairs() []Pair {
	pairs := make([]Pair, 0, d.Len())
	d.Each(func(key string, v Value) bool {
		pairs = append(pairs, Pair{Key: key, Value: v})
		return true
	})
	return pairs
}

// Each calls fn for every entry in order until fn returns false.
func (d *Dict) Each(fn func(key string, v Value) bool) {
	if d == nil {
		return
	}
	for el := d.m.Front(); el != nil; el = el.Next() {
		if !fn(el.Key, el.Value) {
			return
		}
	}
}

func (d *Dict) equal(o *Dict) bool {
	if d.Len() != o.Len() {
		return false
	}
	if d.Len() == 0 {
		return true
	}
	a, b := d.m.Front(), o.m.Front()
	for a != nil && b != nil {
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
		a, b = a.Next(), b.Next()
	}
	return a == nil && b == nil
}
