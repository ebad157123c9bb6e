package benc

type Kind int8

const (
	BENC_INVALID Kind = iota

	BENC_INTEGER // i<digits>e

	BENC_STRING // <len>:<bytes>

	BENC_LIST // l<values>e

	BENC_DICT // d<key><value>...e
)

// Tag bytes of the encoding.
const (
	TAG_INTEGER = 'i'
	TAG_LIST    = 'l'
	TAG_DICT    = 'd'
	TAG_END     = 'e' // Terminates integer, list and dict.
	TAG_COLON   = ':' // Separates a string's length from its content.
	TAG_MINUS   = '-'
)

var kindNames = [...]string{
	"INVALID", /* 0 */
	"INTEGER", /* 1 */
	"STRING",  /* 2 */
	"LIST",    /* 3 */
	"DICT",    /* 4 */
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[0]
}

// tagKind returns the kind a value starting with byte c would have.
func tagKind(c byte) Kind {
	switch {
	case c == TAG_INTEGER:
		return BENC_INTEGER
	case c == TAG_LIST:
		return BENC_LIST
	case c == TAG_DICT:
		return BENC_DICT
	case isDigit(c):
		return BENC_STRING
	}
	return BENC_INVALID
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
