package benc

import (
	"math"
)

// MaxLength is the default limit of bytes one top-level value may span.
var MaxLength int = math.MaxInt

// MaxStringLength is the default limit of a single byte string's content.
var MaxStringLength int = math.MaxInt32

// MaxDepth is the default limit of list and dict nesting.
var MaxDepth int = 512
