// Package transport provides the byte-stream connection the protocol engine
// drives: a capability interface, a net.Conn-backed implementation, and a
// keepalive pool with reuse tracking.
package transport

import (
	"bufio"
	stderrors "errors"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/idna"

	"github.com/sorales/go-httpipe/pkg/errors"
)

// Target identifies where a connection goes: a host/port pair, or a unix
// domain socket path which takes precedence when set.
type Target struct {
	Host       string
	Port       int
	SocketPath string
}

// Key returns the pool key for the target.
func (t Target) Key() string {
	if t.SocketPath != "" {
		return "unix:" + t.SocketPath
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// HostHeader returns the default Host header value for the target.
func (t Target) HostHeader() string {
	if t.SocketPath != "" {
		return "localhost"
	}
	if t.Port != 80 {
		return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	}
	return t.Host
}

// Validate reports whether the target can be dialed.
func (t Target) Validate() error {
	if t.SocketPath != "" {
		return nil
	}
	if t.Host == "" {
		return errors.NewInvalidArgumentError("target host cannot be empty")
	}
	if t.Port <= 0 || t.Port > 65535 {
		return errors.NewInvalidArgumentError("target port must be between 1 and 65535")
	}
	return nil
}

func (t Target) addr() (network, address string) {
	if t.SocketPath != "" {
		return "unix", t.SocketPath
	}
	host := t.Host
	if mapped, err := idna.Lookup.ToASCII(host); err == nil {
		host = mapped
	}
	return "tcp", net.JoinHostPort(host, strconv.Itoa(t.Port))
}

// LineReader reads successive delimiter-terminated lines from a connection.
// The returned lines do not include the delimiter.
type LineReader interface {
	ReadLine() (string, error)
}

// Conn is the capability set the protocol engine requires from a connection.
// Implementations are not safe for concurrent use.
type Conn interface {
	// Send writes p, handling partial writes, and returns the bytes sent.
	Send(p []byte) (int, error)

	// Receive reads exactly max bytes. When the peer closes the connection
	// first, the bytes read so far are returned together with a Closed-kind
	// error.
	Receive(max int) ([]byte, error)

	// ReceiveUntil returns a reusable line reader over the same buffered
	// stream, splitting on delim.
	ReceiveUntil(delim string) LineReader

	// SetTimeout bounds each subsequent Send/Receive/ReadLine operation.
	SetTimeout(d time.Duration)

	// Close tears the connection down. Idempotent.
	Close() error

	// SetKeepalive releases the connection to the keepalive pool instead of
	// closing it. Non-positive arguments select the pool defaults.
	SetKeepalive(idle time.Duration, poolSize int) error

	// ReusedTimes reports how many times this connection was handed out of
	// the pool.
	ReusedTimes() (int, error)
}

// netConn implements Conn over a net.Conn with a shared buffered reader, so
// bytes buffered past a line boundary stay available to Receive.
type netConn struct {
	conn    net.Conn
	br      *bufio.Reader
	pool    *Pool
	target  Target
	timeout time.Duration
	reused  int
	closed  bool
}

func (c *netConn) Send(p []byte) (int, error) {
	if c.closed {
		return 0, errors.NewClosedError("send on closed connection", nil)
	}
	if err := c.applyDeadline(); err != nil {
		return 0, err
	}
	written := 0
	for written < len(p) {
		n, err := c.conn.Write(p[written:])
		written += n
		if err != nil {
			return written, wrapNetError("send", err)
		}
	}
	return written, nil
}

func (c *netConn) Receive(max int) ([]byte, error) {
	if c.closed {
		return nil, errors.NewClosedError("receive on closed connection", nil)
	}
	if err := c.applyDeadline(); err != nil {
		return nil, err
	}
	buf := make([]byte, max)
	n, err := io.ReadFull(c.br, buf)
	if err != nil {
		if isCloseError(err) {
			return buf[:n], errors.NewClosedError("connection closed during receive", err)
		}
		return buf[:n], wrapNetError("receive", err)
	}
	return buf[:n], nil
}

func (c *netConn) ReceiveUntil(delim string) LineReader {
	return &connLineReader{c: c, delim: delim}
}

func (c *netConn) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *netConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.conn.Close(); err != nil {
		return wrapNetError("close", err)
	}
	return nil
}

func (c *netConn) SetKeepalive(idle time.Duration, poolSize int) error {
	if c.closed {
		return errors.NewClosedError("release of closed connection", nil)
	}
	if c.pool == nil {
		return c.Close()
	}
	c.conn.SetDeadline(time.Time{})
	c.timeout = 0
	return c.pool.put(c, idle, poolSize)
}

func (c *netConn) ReusedTimes() (int, error) {
	return c.reused, nil
}

func (c *netConn) applyDeadline() error {
	if c.timeout <= 0 {
		return c.conn.SetDeadline(time.Time{})
	}
	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}

// connLineReader reads delimiter-terminated lines byte-wise from the shared
// buffered stream. Reusable across reads within one response.
type connLineReader struct {
	c     *netConn
	delim string
}

func (l *connLineReader) ReadLine() (string, error) {
	if l.c.closed {
		return "", errors.NewClosedError("read line on closed connection", nil)
	}
	if err := l.c.applyDeadline(); err != nil {
		return "", err
	}
	var sb strings.Builder
	last := l.delim[len(l.delim)-1]
	for {
		b, err := l.c.br.ReadByte()
		if err != nil {
			if isCloseError(err) {
				return sb.String(), errors.NewClosedError("connection closed during read line", err)
			}
			return sb.String(), wrapNetError("read line", err)
		}
		sb.WriteByte(b)
		if b == last {
			s := sb.String()
			if strings.HasSuffix(s, l.delim) {
				return s[:len(s)-len(l.delim)], nil
			}
		}
	}
}

func isCloseError(err error) bool {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return true
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Type == errors.ErrorTypeClosed
	}
	if stderrors.Is(err, net.ErrClosed) || stderrors.Is(err, syscall.ECONNRESET) || stderrors.Is(err, syscall.EPIPE) {
		return true
	}
	return false
}

func wrapNetError(operation string, err error) error {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return errors.NewTimeoutError(operation, err)
	}
	return errors.NewTransportError(operation, err)
}
