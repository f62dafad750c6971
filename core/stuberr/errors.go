package stuberr

import (
	"errors"
	"fmt"
)

// Code is a stable identifier for a failure mode that aborts a run.
// Structural mismatches are comparison results, never errors.
type Code string

const (
	// UnsupportedConstruct is a declaration the engine deliberately does not compare.
	UnsupportedConstruct Code = "UNSUPPORTED_CONSTRUCT"
	// ContractViolation is an internal invariant failure, such as an unknown symbol kind.
	ContractViolation Code = "CONTRACT_VIOLATION"
	// InvalidExpectation is a malformed expectations file.
	InvalidExpectation Code = "INVALID_EXPECTATION"
	// InvalidConfig is a malformed or inconsistent configuration file.
	InvalidConfig Code = "INVALID_CONFIG"
	// InvalidInvocation is a bad command line.
	InvalidInvocation Code = "INVALID_INVOCATION"
	// BuildFailed means the analyzer could not produce declaration graphs.
	BuildFailed Code = "BUILD_FAILED"
)

// Error carries a code, a message and an optional cause.
type Error struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates an Error without a cause.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same code, so callers can test
// errors.Is(err, &stuberr.Error{Code: stuberr.BuildFailed}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails attaches structured details to the error.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// HasCode reports whether err's chain holds an *Error with code.
func HasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
