// Package rpgerr provides structured error handling for the combat simulator.
// It enables clear communication of why a scenario or action cannot proceed,
// with context about the game state when the rules were evaluated.
//
// Invalid actions during an episode are NOT errors: the environment reports
// them as masked-out indices and reward components. rpgerr covers the
// construction-time failures — malformed initial states, bad configuration —
// where the engine refuses to start.
package rpgerr

import (
	"errors"
	"fmt"
)

// Code categorizes why a simulator operation failed.
type Code string

const (
	// CodeUnknown indicates an unknown error occurred
	CodeUnknown Code = "unknown"
	// CodeInternal indicates an internal engine error
	CodeInternal Code = "internal"
	// CodeInvalidArgument indicates invalid input provided
	CodeInvalidArgument Code = "invalid_argument"
	// CodeInvalidState indicates the game state violates a structural invariant
	CodeInvalidState Code = "invalid_state"
	// CodeInvalidTarget indicates a reference to a missing or dead actor
	CodeInvalidTarget Code = "invalid_target"
	// CodeOutOfRange indicates a position or index outside its valid bounds
	CodeOutOfRange Code = "out_of_range"
	// CodeResourceExhausted indicates an exhausted per-turn or per-ability resource
	CodeResourceExhausted Code = "resource_exhausted"
	// CodeNotFound indicates a requested record was not found
	CodeNotFound Code = "not_found"
)

// Error represents a simulator error with code, message, and metadata.
type Error struct {
	// Code categorizes the error type
	Code Code

	// Message describes what happened
	Message string

	// Cause is the wrapped error if any
	Cause error

	// Meta contains game state context (actor names, positions, indices)
	Meta map[string]any
}

// Error returns the error message.
func (e *Error) Error() string {
	if e == nil {
		return "rpgerr: nil error"
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Option is a functional option for configuring errors.
type Option func(*Error)

// WithMeta adds metadata to the error.
func WithMeta(key string, value any) Option {
	return func(e *Error) {
		if e.Meta == nil {
			e.Meta = make(map[string]any)
		}
		e.Meta[key] = value
	}
}

// New creates an error with the given code and message.
func New(code Code, message string, opts ...Option) *Error {
	e := &Error{
		Code:    code,
		Message: message,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error, preserving its code if it is already an *Error.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	code := CodeUnknown
	var rpgErr *Error
	if errors.As(err, &rpgErr) {
		code = rpgErr.Code
	}

	e := &Error{
		Code:    code,
		Message: message,
		Cause:   err,
		Meta:    copyMeta(GetMeta(err)),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// WrapWithCode wraps an error with an explicit code.
func WrapWithCode(err error, code Code, message string, opts ...Option) *Error {
	e := Wrap(err, message, opts...)
	if e != nil {
		e.Code = code
	}
	return e
}

func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}

	copied := make(map[string]any, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}

// GetCode extracts the code from an error, returning CodeUnknown for foreign
// errors and CodeInternal for nil.
func GetCode(err error) Code {
	if err == nil {
		return CodeInternal
	}

	var rpgErr *Error
	if errors.As(err, &rpgErr) {
		return rpgErr.Code
	}

	return CodeUnknown
}

// GetMeta extracts metadata from an error, or nil if there is none.
func GetMeta(err error) map[string]any {
	var rpgErr *Error
	if errors.As(err, &rpgErr) {
		return rpgErr.Meta
	}
	return nil
}

// InvalidArgument creates an invalid-argument error.
func InvalidArgument(reason string, opts ...Option) *Error {
	return New(CodeInvalidArgument, reason, opts...)
}

// InvalidArgumentf creates a formatted invalid-argument error.
func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

// InvalidState creates an invalid-state error.
func InvalidState(reason string, opts ...Option) *Error {
	return New(CodeInvalidState, reason, opts...)
}

// InvalidStatef creates a formatted invalid-state error.
func InvalidStatef(format string, args ...any) *Error {
	return Newf(CodeInvalidState, format, args...)
}

// InvalidTarget creates an invalid-target error.
func InvalidTarget(reason string, opts ...Option) *Error {
	return New(CodeInvalidTarget, reason, opts...)
}

// OutOfRange creates an out-of-range error.
func OutOfRange(reason string, opts ...Option) *Error {
	return New(CodeOutOfRange, reason, opts...)
}

// OutOfRangef creates a formatted out-of-range error.
func OutOfRangef(format string, args ...any) *Error {
	return Newf(CodeOutOfRange, format, args...)
}

// NotFound creates a not-found error.
func NotFound(what string, opts ...Option) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found", what), opts...)
}

// IsInvalidArgument checks if an error has the invalid-argument code.
func IsInvalidArgument(err error) bool {
	return GetCode(err) == CodeInvalidArgument
}

// IsInvalidState checks if an error has the invalid-state code.
func IsInvalidState(err error) bool {
	return GetCode(err) == CodeInvalidState
}

// IsInvalidTarget checks if an error has the invalid-target code.
func IsInvalidTarget(err error) bool {
	return GetCode(err) == CodeInvalidTarget
}

// IsOutOfRange checks if an error has the out-of-range code.
func IsOutOfRange(err error) bool {
	return GetCode(err) == CodeOutOfRange
}

// IsNotFound checks if an error has the not-found code.
func IsNotFound(err error) bool {
	return GetCode(err) == CodeNotFound
}
