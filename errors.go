package edn

import "fmt"

// ErrorKind classifies an [*Error]. ErrorKind implements error so that it
// can be used as the target of [errors.Is]:
//
//	if errors.Is(err, edn.InvalidKey) { ... }
type ErrorKind int8

const (
	// SyntaxError means the input does not follow the EDN grammar.
	SyntaxError = ErrorKind(iota + 1)
	// InvalidKey means a value that cannot be a map key was used as one.
	InvalidKey
	// InvalidUUID means the text of a #uuid literal is not a UUID.
	InvalidUUID
	// InvalidTimestamp means the text of an #inst literal is not RFC 3339.
	InvalidTimestamp
	// UnsupportedType means a Go value has no EDN representation, or an
	// EDN value cannot be decoded into the requested Go type.
	UnsupportedType
	// OutOfRange means a number does not fit in the target type.
	OutOfRange
	// InvalidUTF8 means text was not valid UTF-8.
	InvalidUTF8
	// IOError wraps a failure reading input.
	IOError
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case InvalidKey:
		return "invalid key"
	case InvalidUUID:
		return "invalid uuid"
	case InvalidTimestamp:
		return "invalid timestamp"
	case UnsupportedType:
		return "unsupported type"
	case OutOfRange:
		return "out of range"
	case InvalidUTF8:
		return "invalid UTF-8"
	case IOError:
		return "io error"
	default:
		panic("Unknown ErrorKind")
	}
}

func (k ErrorKind) Error() string {
	return k.String()
}

// An Error is returned for every failure in this package.
//
// Lno and Col are the 1-based position in the input for errors reported by
// the parser, and 0 otherwise.
type Error struct {
	Kind ErrorKind
	Lno  int
	Col  int
	Msg  string
	Err  error

	incomplete bool
}

// Incomplete reports whether parsing failed because the input ended in the
// middle of a form, so that appending more input could make it valid.
func (e *Error) Incomplete() bool {
	return e.incomplete
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Lno > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Lno, e.Col, msg)
	}
	return msg
}

// Is reports whether target is e's ErrorKind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
