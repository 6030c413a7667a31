// ABOUTME: Structured error kinds shared across kenchidb's core packages
// ABOUTME: Wraps underlying errors while preserving a stable Kind for errors.Is

package kerr

import (
	"errors"
	"fmt"
)

// Kind classifies a kenchidb error into one of the semantic categories
// the core distinguishes between.
type Kind int

const (
	// InvalidArgument covers malformed sizes, out-of-bounds offsets, and
	// duplicate keys rejected at the BTree surface.
	InvalidArgument Kind = iota
	// Corrupt covers magic mismatches, checksum mismatches, slots pointing
	// outside a page, and headers/footers of the wrong size.
	Corrupt
	// OutOfSpace covers a page that cannot fit a record plus its slot.
	OutOfSpace
	// NotFound covers page ids beyond the file's page count and out of
	// range slot indexes.
	NotFound
	// ReadOnly covers a write attempted on a read-only file.
	ReadOnly
	// Io covers underlying filesystem failures.
	Io
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case Corrupt:
		return "corrupt"
	case OutOfSpace:
		return "out_of_space"
	case NotFound:
		return "not_found"
	case ReadOnly:
		return "read_only"
	case Io:
		return "io"
	default:
		return "unknown"
	}
}

// Error is the structured error type returned by every kenchidb core
// package. Op names the failing operation (e.g. "page.insert_record").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, kerr.Sentinel(kerr.InvalidArgument)) style checks
// work by comparing Kind whenever the target is itself a *Error.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	if msg == "" {
		return &Error{Kind: kind, Op: op}
	}
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Wrap builds an *Error around an existing error, preserving it for
// errors.Unwrap/errors.As.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel builds a bare marker *Error for a Kind, suitable for
// errors.Is(err, kerr.Sentinel(kerr.NotFound)) comparisons in tests.
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
