package pipe_test

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/sorales/go-httpipe/pkg/errors"
	"github.com/sorales/go-httpipe/pkg/transport"
)

// fakeConn scripts the bytes a server would send and captures what the
// engine writes. With abrupt set, the read that drains the script also
// reports the connection as closed, mimicking a peer that closes right
// after the last byte.
type fakeConn struct {
	in       *bytes.Reader
	out      bytes.Buffer
	closed   bool
	released bool
	reused   int
	timeout  time.Duration
	abrupt   bool
}

func newFakeConn(script string) *fakeConn {
	return &fakeConn{in: bytes.NewReader([]byte(script))}
}

func (c *fakeConn) Send(p []byte) (int, error) {
	if c.closed {
		return 0, errors.NewClosedError("send on closed connection", nil)
	}
	return c.out.Write(p)
}

func (c *fakeConn) Receive(max int) ([]byte, error) {
	buf := make([]byte, max)
	n, err := io.ReadFull(c.in, buf)
	if err != nil {
		return buf[:n], errors.NewClosedError("connection closed during receive", err)
	}
	if c.abrupt && c.in.Len() == 0 {
		return buf[:n], errors.NewClosedError("connection closed during receive", io.EOF)
	}
	return buf[:n], nil
}

func (c *fakeConn) ReceiveUntil(delim string) transport.LineReader {
	return &fakeLineReader{c: c}
}

func (c *fakeConn) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func (c *fakeConn) SetKeepalive(idle time.Duration, poolSize int) error {
	if c.closed {
		return errors.NewClosedError("release of closed connection", nil)
	}
	c.released = true
	return nil
}

func (c *fakeConn) ReusedTimes() (int, error) {
	return c.reused, nil
}

type fakeLineReader struct {
	c *fakeConn
}

func (l *fakeLineReader) ReadLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := l.c.in.ReadByte()
		if err != nil {
			return sb.String(), errors.NewClosedError("connection closed during read line", err)
		}
		if b == '\n' {
			return strings.TrimSuffix(sb.String(), "\r"), nil
		}
		sb.WriteByte(b)
	}
}

// sentRequest splits the captured request bytes into header block and body.
func (c *fakeConn) sentRequest() (head, body string) {
	raw := c.out.String()
	if i := strings.Index(raw, "\r\n\r\n"); i >= 0 {
		return raw[:i+4], raw[i+4:]
	}
	return raw, ""
}
