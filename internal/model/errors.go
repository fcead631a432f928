package model

import (
	"errors"
	"fmt"
)

// Code classifies a failure surfaced to the command layer. Validation and
// state errors are always recovered locally and returned as a typed *Error;
// they never propagate as panics.
type Code string

const (
	CodeInvalidFormat   Code = "invalid_format"   // malformed date/time token
	CodeInvalidSchedule Code = "invalid_schedule" // date+time not in the future
	CodeInvalidDetail   Code = "invalid_detail"   // rule detail does not match the frequency rule
	CodeEmptyUpdate     Code = "empty_update"     // edit with no fields
	CodeNotFound        Code = "not_found"        // unknown event id
	CodeInvalidState    Code = "invalid_state"    // status precondition violated
	CodePersistence     Code = "persistence"      // underlying storage failure
)

// Error is the typed failure returned by the core. Message is meant to be
// shown to the chat user as-is.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds a typed error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches an underlying cause, typically a storage error.
func WrapError(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf extracts the failure code from err, or "" if err is not a typed
// core error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
