package zfile

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KindUsage is a call against the wrong kind of handle or with a bad
	// argument. No I/O was attempted.
	KindUsage Kind = iota
	// KindIO is a failure reported by the operating system.
	KindIO
	// KindFormat is a malformed gzip stream that was already recognized as
	// gzip: truncated header, bad trailer, corrupt deflate data.
	KindFormat
	// KindSafety is a write-open refused by the safe-open checks.
	KindSafety
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	case KindSafety:
		return "safety"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	ErrMode     = errors.New("operation not allowed in this mode")
	ErrInvalid  = errors.New("invalid argument")
	ErrClosed   = errors.New("file already closed")
	ErrHeader   = errors.New("invalid gzip header")
	ErrChecksum = errors.New("gzip trailer mismatch")
	ErrTooLarge = errors.New("formatted output too large")
	ErrUnsafe   = errors.New("refusing to open unsafe target")
)

// Error is the error type returned by every operation of this package
// (except io.EOF at end of stream).
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("zfile: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("zfile: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, and false if err is not an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func usageError(op string, err error) error {
	return &Error{Op: op, Kind: KindUsage, Err: err}
}

func ioError(op string, err error) error {
	return &Error{Op: op, Kind: KindIO, Err: err}
}

func formatError(op string, err error) error {
	return &Error{Op: op, Kind: KindFormat, Err: err}
}

// unsafeError wraps both ErrUnsafe and the errno, so callers can match
// either one (and fs.ErrPermission through EPERM).
type unsafeError struct {
	errno error
}

func (u unsafeError) Error() string { return ErrUnsafe.Error() + ": " + u.errno.Error() }

func (u unsafeError) Unwrap() []error { return []error{ErrUnsafe, u.errno} }
