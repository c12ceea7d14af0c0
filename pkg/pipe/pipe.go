// Package pipe implements the HTTP/1.x client protocol engine: request
// encoding, an incremental pull-based response parser, chunked and
// length-delimited body decoding, and keepalive lifecycle handling, all over
// an established transport connection.
package pipe

import (
	"time"

	"github.com/sorales/go-httpipe/pkg/constants"
	"github.com/sorales/go-httpipe/pkg/errors"
	"github.com/sorales/go-httpipe/pkg/timing"
	"github.com/sorales/go-httpipe/pkg/transport"
)

type state uint8

const (
	stateNotReady state = iota
	stateBegin
	stateReadingHeader
	stateReadingBody
	stateEOF
)

// handlers maps each readable state to its handler. Dispatch is a plain
// table lookup; states without an entry are a logic defect.
var handlers = [...]func(*Pipe) (Event, error){
	stateBegin:         (*Pipe).readStatusLine,
	stateReadingHeader: (*Pipe).readHeaderLine,
	stateReadingBody:   (*Pipe).readBodyData,
	stateEOF:           (*Pipe).readEOF,
}

// Pipe drives one request/response cycle at a time over a single transport
// connection. It is not safe for concurrent use; exactly one logical caller
// may drive it.
type Pipe struct {
	dialer *transport.Dialer
	conn   transport.Conn
	line   transport.LineReader
	target transport.Target

	chunkSize    int
	bodyMemLimit int64
	readTimeout  time.Duration

	state     state
	remaining int64
	chunked   bool
	keepalive bool
	method    string
	eof       bool

	timer *timing.Timer
}

// New returns a Pipe that dials through a private keepalive pool. chunkSize
// is the read-size hint for body reads; non-positive selects the default.
func New(chunkSize int) *Pipe {
	return NewWithDialer(transport.NewDialer(), chunkSize)
}

// NewWithDialer returns a Pipe sharing the given dialer (and its keepalive
// pool) with other pipes.
func NewWithDialer(d *transport.Dialer, chunkSize int) *Pipe {
	if chunkSize <= 0 {
		chunkSize = constants.DefaultChunkSize
	}
	return &Pipe{
		dialer:    d,
		chunkSize: chunkSize,
		keepalive: true,
	}
}

// NewWithConn returns a Pipe bound to an already-established connection.
// Request skips dialing and drives this connection instead.
func NewWithConn(c transport.Conn, chunkSize int) *Pipe {
	p := NewWithDialer(nil, chunkSize)
	p.conn = c
	return p
}

// SetBodyMemLimit bounds the in-memory portion of accumulated response
// bodies; beyond it the body spills to disk.
func (p *Pipe) SetBodyMemLimit(limit int64) {
	p.bodyMemLimit = limit
}

// SetTimeout bounds every subsequent transport read and write.
func (p *Pipe) SetTimeout(d time.Duration) {
	p.readTimeout = d
	if p.conn != nil {
		p.conn.SetTimeout(d)
	}
}

// Read advances the parser by one step and returns the next event. Calling
// Read before any request was dispatched fails with a not-ready error.
func (p *Pipe) Read() (Event, error) {
	if p.state == stateNotReady {
		return Event{}, errors.NewNotReadyError()
	}
	if int(p.state) >= len(handlers) || handlers[p.state] == nil {
		return Event{}, errors.NewBadStateError(int(p.state))
	}
	if p.readTimeout > 0 && !p.eof {
		p.conn.SetTimeout(p.readTimeout)
	}
	return handlers[p.state](p)
}
