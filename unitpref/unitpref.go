/**
 * Package unitpref calculates the unit prefix factors
 * and parses integer sizes such as "64Mi".
 * see: https://en.wikipedia.org/wiki/Unit_prefix
**/
package unitpref

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"halftwo/bdecode/xerr"
)

const multiplier = "kKMGTPEZY"

// Multiplier returns the factor of the unit prefix at the start of s and
// the number of bytes the prefix takes. With binary set, a prefix followed
// by "i" ("Ki", "Mi") is a power of 1024.
// A factor that doesn't fit in uint64 is returned as 0.
func Multiplier(s string, binary bool) (uint64, int) {
	m, n := MultiplierBigInt(s, binary)
	if m.IsUint64() {
		return m.Uint64(), n
	}
	return 0, n // Overflow
}

func MultiplierBigInt(s string, binary bool) (*big.Int, int) {
	m := new(big.Int).SetUint64(1)
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return m, 0
	}

	k := strings.IndexRune(multiplier, r)
	if k < 0 {
		return m, 0
	}
	// 'k' and 'K' are the same power
	if k > 0 {
		k--
	}

	x := new(big.Int).SetUint64(1000)
	if binary && strings.HasPrefix(s[n:], "i") {
		x.SetUint64(1024)
		n++
	}

	m.Exp(x, big.NewInt(int64(k+1)), nil)
	return m, n
}

// ParseSize parses a byte size: decimal digits, then an optional unit
// prefix, then an optional "B". "16k" is 16000, "16Ki" and "16KiB" are 16384.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, xerr.Errorf("unitpref: invalid size %q", s)
	}

	num, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, xerr.Tracef(err, "unitpref: invalid size %q", s)
	}

	m, n := Multiplier(s[i:], true)
	rest := s[i+n:]
	if rest != "" && rest != "B" {
		return 0, xerr.Errorf("unitpref: invalid unit in size %q", s)
	}
	if m == 0 || m > math.MaxInt64 || (num != 0 && uint64(num) > math.MaxInt64/m) {
		return 0, xerr.Errorf("unitpref: size %q overflows", s)
	}
	return num * int64(m), nil
}
