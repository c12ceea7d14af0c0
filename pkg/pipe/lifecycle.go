package pipe

import (
	"github.com/sorales/go-httpipe/pkg/constants"
	"github.com/sorales/go-httpipe/pkg/errors"
)

// finalize ends the cycle exactly once: the connection goes back to the
// keepalive pool while still eligible, and is closed outright otherwise.
func (p *Pipe) finalize() error {
	if p.conn == nil {
		return errors.NewNotInitializedError("finalize")
	}
	if p.eof {
		return nil
	}
	p.eof = true
	p.line = nil
	if p.keepalive {
		return p.conn.SetKeepalive(constants.DefaultIdleTimeout, constants.DefaultPoolSize)
	}
	return p.conn.Close()
}

// SetKeepalive finalizes the cycle, releasing the connection to the pool if
// it is still keepalive-eligible. No-op when the cycle already finalized.
func (p *Pipe) SetKeepalive() error {
	return p.finalize()
}

// Close forces an unconditional close of the connection. No-op when the
// cycle already finalized.
func (p *Pipe) Close() error {
	if p.conn == nil {
		return errors.NewNotInitializedError("close")
	}
	if p.eof {
		return nil
	}
	p.eof = true
	p.line = nil
	p.state = stateEOF
	return p.conn.Close()
}

// ReusedTimes reports how many times the underlying connection was handed
// out of the keepalive pool.
func (p *Pipe) ReusedTimes() (int, error) {
	if p.conn == nil {
		return 0, errors.NewNotInitializedError("reused times")
	}
	return p.conn.ReusedTimes()
}
