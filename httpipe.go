// Package httpipe provides a compact, low-level HTTP/1.x client protocol
// engine: request serialization, an incremental pull-based response parser
// with chunked and length-delimited body decoding, and keepalive connection
// reuse over raw byte-stream transports.
package httpipe

import (
	"github.com/sorales/go-httpipe/pkg/buffer"
	"github.com/sorales/go-httpipe/pkg/constants"
	"github.com/sorales/go-httpipe/pkg/errors"
	"github.com/sorales/go-httpipe/pkg/header"
	"github.com/sorales/go-httpipe/pkg/pipe"
	"github.com/sorales/go-httpipe/pkg/timing"
	"github.com/sorales/go-httpipe/pkg/transport"
)

// Version is the current version of the httpipe library
const Version = constants.EngineVersion

// Re-export key types for easier usage
type (
	// Pipe drives one request/response cycle at a time over a connection.
	Pipe = pipe.Pipe

	// Options describes one request.
	Options = pipe.Options

	// Response is the assembled result of a request/response cycle.
	Response = pipe.Response

	// Event is one parse event from the incremental reader.
	Event = pipe.Event

	// Target identifies a host/port pair or a unix socket path.
	Target = transport.Target

	// Header is an insertion-ordered, multi-valued header map.
	Header = header.Map

	// Buffer provides memory-efficient body storage with disk spilling.
	Buffer = buffer.Buffer

	// Metrics captures timing information for a cycle.
	Metrics = timing.Metrics

	// Error represents a structured error with context information.
	Error = errors.Error
)

// Re-export version selectors and event kinds for convenience
const (
	Version10 = pipe.Version10
	Version11 = pipe.Version11

	EventStatusLine = pipe.EventStatusLine
	EventHeader     = pipe.EventHeader
	EventHeaderEnd  = pipe.EventHeaderEnd
	EventBody       = pipe.EventBody
	EventBodyEnd    = pipe.EventBodyEnd
	EventEOF        = pipe.EventEOF
)

// Re-export error types for convenience
const (
	ErrorTypeNotInitialized  = errors.ErrorTypeNotInitialized
	ErrorTypeNotReady        = errors.ErrorTypeNotReady
	ErrorTypeInvalidVersion  = errors.ErrorTypeInvalidVersion
	ErrorTypeInvalidArgument = errors.ErrorTypeInvalidArgument
	ErrorTypeTransport       = errors.ErrorTypeTransport
	ErrorTypeClosed          = errors.ErrorTypeClosed
	ErrorTypeTimeout         = errors.ErrorTypeTimeout
	ErrorTypeProtocol        = errors.ErrorTypeProtocol
	ErrorTypeMalformedStatus = errors.ErrorTypeMalformedStatus
	ErrorTypeBadState        = errors.ErrorTypeBadState
)

// New returns a Pipe with a private keepalive pool. chunkSize is the body
// read-size hint; pass 0 for the 8192-byte default.
func New(chunkSize int) *Pipe {
	return pipe.New(chunkSize)
}

// NewDialer returns a dialer whose keepalive pool can be shared across
// pipes via NewWithDialer.
func NewDialer() *transport.Dialer {
	return transport.NewDialer()
}

// NewWithDialer returns a Pipe drawing connections from the given dialer.
func NewWithDialer(d *transport.Dialer, chunkSize int) *Pipe {
	return pipe.NewWithDialer(d, chunkSize)
}

// CanonicalHeader returns the canonical display form of a header name.
func CanonicalHeader(name string) string {
	return header.Canonical(name)
}

// IsTimeoutError checks if an error is a timeout error.
func IsTimeoutError(err error) bool {
	return errors.IsTimeoutError(err)
}

// IsClosedError checks if an error reports a connection closed by the peer.
func IsClosedError(err error) bool {
	return errors.IsClosed(err)
}

// IsMalformedStatusError checks if an error reports an unparseable status
// line; the literal line is still surfaced in the response.
func IsMalformedStatusError(err error) bool {
	return errors.IsMalformedStatus(err)
}

// GetErrorType returns the error type if it's a structured error.
func GetErrorType(err error) string {
	return string(errors.GetErrorType(err))
}
