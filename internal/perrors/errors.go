// Package perrors defines the error kinds pathbreach's components raise,
// modeled with github.com/agilira/go-errors the same way the agilira-orpheus
// CLI framework models its own OrpheusError: a small set of string-backed
// error codes, each carrying a severity and optional structured context.
package perrors

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Error codes covering transport, protocol, configuration, and cancellation
// failures that the probes and driver raise.
const (
	CodeInvalidConfig    goerrors.ErrorCode = "PB1000"
	CodeTransportRefused goerrors.ErrorCode = "PB1001"
	CodeTransportTimeout goerrors.ErrorCode = "PB1002"
	CodeTransportReset   goerrors.ErrorCode = "PB1003"
	CodeTLSHandshake     goerrors.ErrorCode = "PB1004"
	CodeProtocolError    goerrors.ErrorCode = "PB1005"
	CodeCancelled        goerrors.ErrorCode = "PB1006"
	CodeOracleUndecided  goerrors.ErrorCode = "PB1007"
)

// Error wraps a go-errors Error with the error-kind taxonomy pathbreach
// callers switch on.
type Error struct {
	inner *goerrors.Error
}

// New creates an Error of the given kind.
func New(code goerrors.ErrorCode, message string) *Error {
	return &Error{inner: goerrors.New(code, message).WithSeverity(severityFor(code))}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(code goerrors.ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func severityFor(code goerrors.ErrorCode) string {
	switch code {
	case CodeInvalidConfig, CodeOracleUndecided:
		return "fatal"
	case CodeCancelled:
		return "info"
	default:
		return "error"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.inner.Error()
}

// Unwrap exposes the underlying go-errors Error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.inner
}

// Code returns the error kind.
func (e *Error) Code() goerrors.ErrorCode {
	return e.inner.ErrorCode()
}

// WithContext attaches structured context and returns the error for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	e.inner.WithContext(key, value)
	return e
}

// Is reports whether err carries the given error code, unwrapping *Error
// values produced by this package.
func Is(err error, code goerrors.ErrorCode) bool {
	pe, ok := err.(*Error)
	if !ok {
		return false
	}
	return pe.Code() == code
}
