// Package wire error types.
//
// Every decoder in this module reports failures through a single Error type
// carrying one of five kinds. A corrupt or unsupported wallet file yields one
// terminal Error describing the first field that failed; callers test the
// kind with errors.Is against the sentinel values below.
package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a decode failure.
type Kind int

const (
	// KindTruncation means a read went past the end of the input.
	KindTruncation Kind = iota + 1
	// KindVersionUnsupported means a version tag is newer (or older) than
	// this reader understands.
	KindVersionUnsupported
	// KindInvalidTag means an enum-like discriminant is outside its closed set.
	KindInvalidTag
	// KindEncoding means a string failed UTF-8 validation, a length prefix
	// was malformed, or the crypto collaborator rejected a key blob.
	KindEncoding
	// KindConsistency means a structural cross-check failed.
	KindConsistency
)

func (k Kind) String() string {
	switch k {
	case KindTruncation:
		return "truncation"
	case KindVersionUnsupported:
		return "version unsupported"
	case KindInvalidTag:
		return "invalid tag"
	case KindEncoding:
		return "encoding error"
	case KindConsistency:
		return "consistency violation"
	default:
		return fmt.Sprintf("unknown kind %d", int(k))
	}
}

// Sentinels for errors.Is.
var (
	ErrTruncation         = &Error{Kind: KindTruncation}
	ErrVersionUnsupported = &Error{Kind: KindVersionUnsupported}
	ErrInvalidTag         = &Error{Kind: KindInvalidTag}
	ErrEncoding           = &Error{Kind: KindEncoding}
	ErrConsistency        = &Error{Kind: KindConsistency}
)

// Error is a decode failure.
type Error struct {
	Kind    Kind   // Failure class
	Op      string // Dotted field path, e.g. "keys.okeys[1].fvk"
	Offset  int    // Byte offset of the failing read (-1 if unknown)
	Message string // Human-readable detail
	Err     error  // Underlying error (if any)
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" at ")
		b.WriteString(e.Op)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
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

// Is matches any *Error of the same kind, so sentinels compare by kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Errorf builds an Error of the given kind with no offset.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Offset: -1, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an arbitrary error (typically from the crypto
// collaborator).
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Offset: -1, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithField prefixes the field path of a decode error. Non-decode errors are
// returned unchanged.
func WithField(err error, field string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	if e.Op == "" {
		e.Op = field
	} else if strings.HasPrefix(e.Op, "[") {
		e.Op = field + e.Op
	} else {
		e.Op = field + "." + e.Op
	}
	return err
}

// WithIndex prefixes the field path with a sequence index.
func WithIndex(err error, i int) error {
	return WithField(err, fmt.Sprintf("[%d]", i))
}

// KindOf reports the kind of a decode error, or 0 if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
