// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for the fork/join pool.

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every *Error matches exactly one of them through errors.Is.
var (
	ErrConfiguration      = errors.New("invalid pool configuration")
	ErrPoolClosed         = errors.New("pool is closed")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrComputation        = errors.New("computation failed")
	ErrInternal           = errors.New("internal error")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeConfiguration
	ErrCodePoolClosed
	ErrCodeArithmeticOverflow
	ErrCodeComputation
	ErrCodeInternal
)

// String returns the code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeConfiguration:
		return "configuration"
	case ErrCodePoolClosed:
		return "pool_closed"
	case ErrCodeArithmeticOverflow:
		return "arithmetic_overflow"
	case ErrCodeComputation:
		return "computation"
	default:
		return "internal"
	}
}

func (c ErrorCode) sentinel() error {
	switch c {
	case ErrCodeConfiguration:
		return ErrConfiguration
	case ErrCodePoolClosed:
		return ErrPoolClosed
	case ErrCodeArithmeticOverflow:
		return ErrArithmeticOverflow
	case ErrCodeComputation:
		return ErrComputation
	case ErrCodeInternal:
		return ErrInternal
	}
	return nil
}

// Error represents a structured error with code, cause and context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Context) > 0 {
		msg = fmt.Sprintf("%s (context: %+v)", msg, e.Context)
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel that belongs to the error code.
func (e *Error) Is(target error) bool {
	s := e.Code.sentinel()
	return s != nil && s == target
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause attaches the underlying failure.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// CodeOf reports the code of the outermost *Error in err's chain.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
