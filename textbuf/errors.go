package textbuf

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindOutOfBounds ErrorKind = iota + 1
	KindColumnOutOfBounds
	KindInvalidBoundary
	KindInvalidUTF8
	KindInvalidRange
	KindRangeOutOfBounds
)

func (k ErrorKind) String() string {
	switch k {
	case KindOutOfBounds:
		return "out of bounds"
	case KindColumnOutOfBounds:
		return "column out of bounds"
	case KindInvalidBoundary:
		return "invalid character boundary"
	case KindInvalidUTF8:
		return "invalid UTF-8"
	case KindInvalidRange:
		return "invalid range"
	case KindRangeOutOfBounds:
		return "range out of bounds"
	default:
		return "unknown error"
	}
}

// Error is returned by every failing buffer operation. Two errors match
// with errors.Is when their kinds are equal, so the Err* values below can be
// used as targets regardless of the message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrOutOfBounds       = &Error{Kind: KindOutOfBounds}
	ErrColumnOutOfBounds = &Error{Kind: KindColumnOutOfBounds}
	ErrInvalidBoundary   = &Error{Kind: KindInvalidBoundary}
	ErrInvalidUTF8       = &Error{Kind: KindInvalidUTF8}
	ErrInvalidRange      = &Error{Kind: KindInvalidRange}
	ErrRangeOutOfBounds  = &Error{Kind: KindRangeOutOfBounds}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// BatchError reports which change of a batch failed. Changes before Index
// were applied; Index and everything after it were not.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("change %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
