package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the unified fnkit error type.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode
	// Message is a human-readable error message.
	Message string
	// Details contains additional context for the error.
	Details map[string]any
	// Cause is the underlying error that caused this error.
	Cause error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// IsCode reports whether err or any error in its chain carries code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of err, or the empty string when err is not an
// fnkit error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// --- Evaluation error constructors ---

// MissingKey creates an evaluation error for a key absent from a mapping.
func MissingKey(key any) *Error {
	return &Error{
		Code: ErrCodeEvalLookup, Message: fmt.Sprintf("key %v not found", key),
		Details: map[string]any{"key": key},
	}
}

// MissingAttr creates an evaluation error for an attribute absent from a value.
func MissingAttr(name string, value any) *Error {
	return &Error{
		Code: ErrCodeEvalLookup, Message: fmt.Sprintf("attribute %q not found on %T", name, value),
		Details: map[string]any{"attribute": name},
	}
}

// IndexOutOfRange creates an evaluation error for an out-of-range index.
func IndexOutOfRange(index, length int) *Error {
	return &Error{
		Code: ErrCodeEvalLookup, Message: fmt.Sprintf("index %d out of range for length %d", index, length),
		Details: map[string]any{"index": index, "length": length},
	}
}

// TypeMismatch creates an evaluation error for an operand of the wrong type.
func TypeMismatch(op string, value any) *Error {
	return &Error{
		Code: ErrCodeEvalType, Message: fmt.Sprintf("operation %s not supported for %T", op, value),
		Details: map[string]any{"operation": op},
	}
}

// WrongArity creates an evaluation error for a call with the wrong argument count.
func WrongArity(want, got int) *Error {
	return &Error{
		Code: ErrCodeEvalArity, Message: fmt.Sprintf("call expects %d arguments, got %d", want, got),
		Details: map[string]any{"want": want, "got": got},
	}
}

// --- Configuration error constructors ---

// InvalidThreshold creates a configuration error for an invalid threshold value.
func InvalidThreshold(name string, threshold int) *Error {
	return &Error{
		Code: ErrCodeInvalidThreshold, Message: fmt.Sprintf("threshold %d for backend %q must be non-negative", threshold, name),
		Details: map[string]any{"backend": name, "threshold": threshold},
	}
}

// UnknownBackend creates a configuration error for an unregistered backend name.
func UnknownBackend(name string) *Error {
	return &Error{
		Code: ErrCodeUnknownBackend, Message: fmt.Sprintf("backend %q is not registered", name),
		Details: map[string]any{"backend": name},
	}
}

// --- Backend error constructors ---

// BackendUnavailable creates an error for an explicit-backend call naming a
// backend that is not registered or is disabled.
func BackendUnavailable(name string) *Error {
	return &Error{
		Code: ErrCodeBackendUnavailable, Message: fmt.Sprintf("backend %q is unavailable", name),
		Details: map[string]any{"backend": name},
	}
}

// BackendIncompatible creates an error for data a named backend cannot process.
func BackendIncompatible(name, reason string) *Error {
	return &Error{
		Code: ErrCodeBackendIncompatible, Message: fmt.Sprintf("backend %q cannot process this data: %s", name, reason),
		Details: map[string]any{"backend": name},
	}
}

// --- Pipeline error constructors ---

// Template creates an error for a malformed or non-applicable template.
func Template(reason string) *Error {
	return &Error{Code: ErrCodeTemplate, Message: reason}
}

// UnsupportedOp creates an error for an unregistered extension operation.
func UnsupportedOp(name string, value any) *Error {
	return &Error{
		Code: ErrCodeUnsupportedOp, Message: fmt.Sprintf("operation %q is not registered for %T", name, value),
		Details: map[string]any{"operation": name},
	}
}

// InvalidArgument creates an error for an argument outside its valid range.
func InvalidArgument(op, reason string) *Error {
	return &Error{
		Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s: %s", op, reason),
		Details: map[string]any{"operation": op},
	}
}

// Empty creates an error for a terminal operation on an empty sequence.
func Empty(op string) *Error {
	return &Error{
		Code: ErrCodeEmpty, Message: fmt.Sprintf("%s of empty sequence", op),
		Details: map[string]any{"operation": op},
	}
}
