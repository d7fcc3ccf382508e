package cif

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrorKind classifies errors produced while reading.
type ErrorKind int

const (
	// KindIO indicates the underlying byte source failed.
	KindIO ErrorKind = iota + 1

	// KindFileFormat indicates the input is malformed for the active format.
	KindFileFormat
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFileFormat:
		return "file format"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

var (
	// ErrShortRead is wrapped by the IO error returned when fewer bytes than
	// requested could be obtained from the input.
	ErrShortRead = errors.New("less data read than requested")

	// ErrWouldBlock may be returned (or wrapped) by a Filler to signal that no
	// data is available yet. The Source retries according to its RetryPolicy.
	ErrWouldBlock = errors.New("no data available yet")

	// ErrTooManyRetries is wrapped by the IO error returned when a Filler
	// keeps reporting ErrWouldBlock beyond RetryPolicy.MaxRetries.
	ErrTooManyRetries = errors.New("too many retries waiting for data")
)

// Error is the single error type produced by this package. Every fallible
// operation either succeeds or returns exactly one *Error (errors returned by
// caller callbacks are passed through unchanged).
type Error struct {
	// Kind is IO or FileFormat.
	Kind ErrorKind

	// Line is the 1-based line number of a text-format error, or 0.
	Line int

	// Msg is the human-readable message.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsIO reports whether err is (or wraps) an IO *Error.
func IsIO(err error) bool {
	var cerr *Error
	return errors.As(err, &cerr) && cerr.Kind == KindIO
}

// IsFileFormat reports whether err is (or wraps) a FileFormat *Error.
func IsFileFormat(err error) bool {
	var cerr *Error
	return errors.As(err, &cerr) && cerr.Kind == KindFileFormat
}

// formatErrorf builds a text-format error. The message is expected to
// mention the line itself, as in "... at line 12".
func formatErrorf(line int, format string, args ...any) *Error {
	return &Error{Kind: KindFileFormat, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// binaryError builds a BinaryCIF structural error that carries the low-level
// decoder diagnostic. An IO failure surfacing through the decoder is
// reported as such rather than as a format problem.
func binaryError(err error, format string, args ...any) *Error {
	var cerr *Error
	if errors.As(err, &cerr) && cerr.Kind == KindIO {
		return cerr
	}
	return &Error{Kind: KindFileFormat, Msg: fmt.Sprintf(format, args...), Err: err}
}

func ioError(msg string, err error) *Error {
	return &Error{Kind: KindIO, Msg: msg, Err: err}
}

// isWouldBlock reports whether a fill error is a transient "no data yet".
func isWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EWOULDBLOCK) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}
