package cuckoo

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	KindIO Kind = iota + 1
	KindFormat
	KindSize
	KindProtection
	KindNotFound
	KindNotFunc
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "i/o error"
	case KindFormat:
		return "format error"
	case KindSize:
		return "size error"
	case KindProtection:
		return "protection error"
	case KindNotFound:
		return "not found"
	case KindNotFunc:
		return "not a function"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrIO         = &Error{Kind: KindIO}
	ErrFormat     = &Error{Kind: KindFormat}
	ErrSize       = &Error{Kind: KindSize}
	ErrProtection = &Error{Kind: KindProtection}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrNotFunc    = &Error{Kind: KindNotFunc}
)

// Error is returned by every fallible operation in this package. Callers
// should branch on Kind rather than on the message.
type Error struct {
	Kind Kind

	// Op is the failing step, such as "open", "mmap" or "mprotect".
	Op string

	// Path is the image path, when one is involved.
	Path string

	// Name is the symbol name, when one is involved.
	Name string

	// Err is the underlying error, usually from the OS.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind. Fields other than
// Kind are ignored so the package sentinels match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func formatErrorf(format string, args ...any) error {
	return &Error{Kind: KindFormat, Err: fmt.Errorf(format, args...)}
}
