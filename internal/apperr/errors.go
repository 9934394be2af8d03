package apperr

import (
	"errors"
	"fmt"
)

// Machine error codes surfaced to the client alongside a human-readable
// message. Handlers map these onto reply payloads and HTTP statuses.
const (
	CodeInvalidIdentifier     = "INVALID_IDENTIFIER"
	CodeEntityNotFound        = "ENTITY_NOT_FOUND"
	CodeInvalidReference      = "INVALID_REFERENCE"
	CodeStoreUnavailable      = "STORE_UNAVAILABLE"
	CodeInconsistentAggregate = "INCONSISTENT_AGGREGATE"
	CodeInvalidPaymentMethod  = "INVALID_PAYMENT_METHOD"
	CodeInvalidStatus         = "INVALID_STATUS"
)

// Error carries a machine code plus a human-readable message and an
// optional wrapped cause.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with a formatted message.
func New(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a coded error.
func Wrap(code string, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound reports a well-formed id that resolves to nothing.
func NotFound(entity, id string) *Error {
	return New(CodeEntityNotFound, "%s not found: %s", entity, id)
}

// InvalidIdentifier reports a malformed or unresolvable id.
func InvalidIdentifier(value interface{}) *Error {
	return New(CodeInvalidIdentifier, "invalid identifier: %v", value)
}

// StoreUnavailable reports a failed store round-trip.
func StoreUnavailable(err error) *Error {
	return Wrap(CodeStoreUnavailable, err, "store unavailable")
}

// CodeOf extracts the machine code from err, or empty when err carries
// none.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// MessageOf extracts the human-readable message, falling back to
// err.Error().
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
