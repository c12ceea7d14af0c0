// Package errors provides structured error types for the go-httpipe library.
package errors

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorType represents the category of error that occurred.
type ErrorType string

const (
	// ErrorTypeNotInitialized represents operations attempted on a pipe with no transport bound
	ErrorTypeNotInitialized ErrorType = "not_initialized"
	// ErrorTypeNotReady represents reads attempted before a request was dispatched
	ErrorTypeNotReady ErrorType = "not_ready"
	// ErrorTypeInvalidVersion represents an HTTP version selector outside the supported set
	ErrorTypeInvalidVersion ErrorType = "invalid_version"
	// ErrorTypeInvalidArgument represents unusable caller-supplied arguments
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	// ErrorTypeTransport represents errors propagated from the transport
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeClosed represents a connection closed by the peer
	ErrorTypeClosed ErrorType = "closed"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeProtocol represents HTTP wire-format violations
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeMalformedStatus represents a status line that did not parse
	ErrorTypeMalformedStatus ErrorType = "malformed_status"
	// ErrorTypeBadState represents an internal state machine invariant violation
	ErrorTypeBadState ErrorType = "bad_state"
	// ErrorTypeIO represents local I/O errors
	ErrorTypeIO ErrorType = "io"
)

// Error represents a structured error with context information.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target type.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Type == t.Type
	}
	return false
}

// NewNotInitializedError creates an error for an operation on an unbound pipe.
func NewNotInitializedError(operation string) *Error {
	return &Error{
		Type:      ErrorTypeNotInitialized,
		Message:   fmt.Sprintf("%s attempted with no transport bound", operation),
		Timestamp: time.Now(),
	}
}

// NewNotReadyError creates an error for a read before any request was dispatched.
func NewNotReadyError() *Error {
	return &Error{
		Type:      ErrorTypeNotReady,
		Message:   "read attempted before a request was dispatched",
		Timestamp: time.Now(),
	}
}

// NewInvalidVersionError creates an error for an unsupported HTTP version selector.
func NewInvalidVersionError(version int) *Error {
	return &Error{
		Type:      ErrorTypeInvalidVersion,
		Message:   fmt.Sprintf("unsupported HTTP version selector %d", version),
		Timestamp: time.Now(),
	}
}

// NewInvalidArgumentError creates an error for unusable caller input.
func NewInvalidArgumentError(message string) *Error {
	return &Error{
		Type:      ErrorTypeInvalidArgument,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewTransportError creates a transport error.
func NewTransportError(operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeTransport,
		Message:   fmt.Sprintf("transport error during %s", operation),
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewClosedError creates an error for a connection closed by the peer.
func NewClosedError(message string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeClosed,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeTimeout,
		Message:   fmt.Sprintf("%s timed out", operation),
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewProtocolError creates a wire-format error.
func NewProtocolError(message string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeProtocol,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewMalformedStatusError creates an error carrying an unparseable status line.
func NewMalformedStatusError(line string) *Error {
	return &Error{
		Type:      ErrorTypeMalformedStatus,
		Message:   fmt.Sprintf("malformed status line %q", line),
		Timestamp: time.Now(),
	}
}

// NewBadStateError creates an error for a state with no registered handler.
func NewBadStateError(state int) *Error {
	return &Error{
		Type:      ErrorTypeBadState,
		Message:   fmt.Sprintf("no handler registered for state %d", state),
		Timestamp: time.Now(),
	}
}

// NewIOError creates a local I/O error.
func NewIOError(operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeIO,
		Message:   fmt.Sprintf("I/O error during %s", operation),
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// IsClosed checks if an error reports a connection closed by the peer.
func IsClosed(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == ErrorTypeClosed
	}
	return false
}

// IsTimeoutError checks if an error is a timeout error.
func IsTimeoutError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == ErrorTypeTimeout
	}
	if netErr, ok := err.(net.Error); ok {
		return netErr.Timeout()
	}
	return false
}

// IsMalformedStatus checks if an error reports an unparseable status line.
func IsMalformedStatus(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeMalformedStatus
	}
	return false
}

// GetErrorType returns the error type if it's a structured error.
func GetErrorType(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}
