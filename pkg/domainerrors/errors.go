// Package domainerrors defines the coded error type shared by the mapping
// layer and the HTTP handlers. Stores and codecs return these (optionally
// wrapping an underlying cause) so transport code can translate them into
// consistent responses without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure for the caller.
type Code string

const (
	// CodeValidation marks form content that violates an entity-specific
	// structural rule (for example a malformed date of birth).
	CodeValidation Code = "validation"
	// CodeBadRequest marks malformed request input outside form rules,
	// such as an unparseable object id.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks an update or point lookup that targeted zero
	// existing records.
	CodeNotFound Code = "not_found"
	// CodeIntegrity marks a reference that could not be resolved against
	// its collection during conversion.
	CodeIntegrity Code = "integrity"
	// CodeStorage marks a transport or query failure talking to the
	// document store.
	CodeStorage Code = "storage"
	// CodeInternal marks everything else.
	CodeInternal Code = "internal"
)

// Error carries a code, a short machine-addressable message and an
// optional wrapped cause. Raw driver errors never cross the handler
// boundary directly.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// ToHTTPStatus maps a code to the response class served to clients.
// Validation and resolution failures are client errors; storage and
// internal failures are server errors.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeIntegrity:
		return http.StatusUnprocessableEntity
	case CodeStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
