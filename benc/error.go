package benc

import (
	"fmt"
)

// ErrorKind classifies decode failures.
type ErrorKind uint8

const (
	ErrKindNone ErrorKind = iota
	ErrKindUnexpectedEnd
	ErrKindInvalidLength
	ErrKindMissingDelimiter
	ErrKindUnterminatedValue
	ErrKindUnterminatedContainer
	ErrKindInvalidLiteral
	ErrKindIntegerOverflow
	ErrKindInvalidKeyType
	ErrKindUnknownTag
	ErrKindDepthOverflow
	ErrKindLengthOverflow
	ErrKindNonCanonical
	ErrKindTrailingData
)

var errorKindNames = [...]string{
	"no error",
	"unexpected end of input",
	"invalid string length",
	"missing ':' delimiter",
	"unterminated value",
	"unterminated container",
	"invalid integer literal",
	"integer overflow",
	"dict key is not a string",
	"unknown tag",
	"depth exceeds max",
	"length exceeds max",
	"non-canonical encoding",
	"trailing data",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("error kind %d", k)
}

// A DecodeError describes why and where decoding failed.
// Offset is the absolute position in the input buffer.
type DecodeError struct {
	Kind   ErrorKind
	Offset int
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("benc: %s at offset %d: %s", e.Kind, e.Offset, e.Detail)
	}
	return fmt.Sprintf("benc: %s at offset %d", e.Kind, e.Offset)
}

// Is reports whether target is a DecodeError of the same kind,
// so errors.Is(err, benc.ErrUnknownTag) works regardless of offset.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnexpectedEnd         = &DecodeError{Kind: ErrKindUnexpectedEnd}
	ErrInvalidLength         = &DecodeError{Kind: ErrKindInvalidLength}
	ErrMissingDelimiter      = &DecodeError{Kind: ErrKindMissingDelimiter}
	ErrUnterminatedValue     = &DecodeError{Kind: ErrKindUnterminatedValue}
	ErrUnterminatedContainer = &DecodeError{Kind: ErrKindUnterminatedContainer}
	ErrInvalidLiteral        = &DecodeError{Kind: ErrKindInvalidLiteral}
	ErrIntegerOverflow       = &DecodeError{Kind: ErrKindIntegerOverflow}
	ErrInvalidKeyType        = &DecodeError{Kind: ErrKindInvalidKeyType}
	ErrUnknownTag            = &DecodeError{Kind: ErrKindUnknownTag}
	ErrDepthOverflow         = &DecodeError{Kind: ErrKindDepthOverflow}
	ErrLengthOverflow        = &DecodeError{Kind: ErrKindLengthOverflow}
	ErrNonCanonical          = &DecodeError{Kind: ErrKindNonCanonical}
	ErrTrailingData          = &DecodeError{Kind: ErrKindTrailingData}
)

func newError(kind ErrorKind, offset int, detail string) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Detail: detail}
}

func newErrorf(kind ErrorKind, offset int, format string, a ...any) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Detail: fmt.Sprintf(format, a...)}
}
