// Package errors provides structured error types for httpsvendor.
//
// Every fatal condition of a crawl is reported as an [*Error] carrying a
// machine-readable [Code]. Callers branch on the code rather than on message
// text:
//
//	if errors.Is(err, errors.ErrCodeSecurityViolation) {
//	    // an https: module tried to reach a non-https: resource
//	}
//
// Error codes follow a category naming convention:
//   - INVALID_*: input validation failures
//   - *_NOT_FOUND: missing files
//   - NETWORK_*, TIMEOUT, CONTENT_TYPE, REDIRECT_LOOP: remote retrieval failures
//   - UNSUPPORTED_SCHEME, SECURITY_VIOLATION: traversal policy violations
//   - DYNAMIC_IMPORT, PARSE_ERROR: source analysis failures
package errors

import (
	"errors"
	"fmt"
)

// Code classifies an Error.
type Code string

const (
	// Arguments, paths and configuration.
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Fetching https: modules.
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeTimeout      Code = "TIMEOUT"
	ErrCodeContentType  Code = "CONTENT_TYPE"
	ErrCodeRedirectLoop Code = "REDIRECT_LOOP"

	// Which schemes a module may import.
	ErrCodeUnsupportedScheme Code = "UNSUPPORTED_SCHEME"
	ErrCodeSecurityViolation Code = "SECURITY_VIOLATION"

	// Reading import specifiers.
	ErrCodeDynamicImport Code = "DYNAMIC_IMPORT"
	ErrCodeParse         Code = "PARSE_ERROR"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a coded failure, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether the first *Error in err's chain has code. Codes of
// errors wrapped beneath it are not consulted.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage is err's text without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
