package query

import "fmt"

// ErrorKind separates documents that are not valid JSON from documents that
// parse but cannot be applied to a collection.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindInvalid
)

// Error is returned for any client-supplied query parameter that cannot be
// honored. It always maps to a client error.
type Error struct {
	Kind   ErrorKind
	Param  string
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %s", e.Param, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Param, e.Reason)
}

// Syntax reports whether the error came from decoding the raw parameter text.
func (e *Error) Syntax() bool {
	return e.Kind == KindSyntax
}

func syntaxError(param string, err error) *Error {
	return &Error{Kind: KindSyntax, Param: param, Reason: err.Error()}
}

func invalid(param, field, format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Param: param, Field: field, Reason: fmt.Sprintf(format, args...)}
}
