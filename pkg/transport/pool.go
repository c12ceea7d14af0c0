package transport

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/sorales/go-httpipe/pkg/constants"
	"github.com/sorales/go-httpipe/pkg/errors"
)

// Dialer hands out connections, preferring idle keepalive connections from
// its pool over fresh dials.
type Dialer struct {
	pool *Pool
}

// NewDialer returns a Dialer backed by a fresh keepalive pool.
func NewDialer() *Dialer {
	return &Dialer{pool: NewPool()}
}

// Dial returns a connection to target, reusing an idle pooled connection
// when one exists. timeout bounds a fresh dial; non-positive selects the
// default connect timeout.
func (d *Dialer) Dial(ctx context.Context, target Target, timeout time.Duration) (Conn, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if c := d.pool.get(target.Key()); c != nil {
		return c, nil
	}
	if timeout <= 0 {
		timeout = constants.DefaultConnectTimeout
	}
	network, address := target.addr()
	dialer := &net.Dialer{Timeout: timeout}
	nc, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, errors.NewTimeoutError("connect", err)
		}
		return nil, errors.NewTransportError("connect", err)
	}
	return &netConn{
		conn:   nc,
		br:     bufio.NewReader(nc),
		pool:   d.pool,
		target: target,
	}, nil
}

type idleConn struct {
	conn  *netConn
	timer *time.Timer
}

// Pool holds idle keepalive connections keyed by target, evicting them after
// an idle timeout.
type Pool struct {
	mu   sync.Mutex
	idle map[string][]*idleConn
}

// NewPool returns an empty keepalive pool.
func NewPool() *Pool {
	return &Pool{idle: make(map[string][]*idleConn)}
}

// get pops the most recently released idle connection for key, if any, and
// counts the reuse.
func (p *Pool) get(key string) *netConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.idle[key]
	if len(list) == 0 {
		return nil
	}
	entry := list[len(list)-1]
	p.idle[key] = list[:len(list)-1]
	entry.timer.Stop()
	entry.conn.reused++
	return entry.conn
}

// put parks a connection for reuse. The connection is closed instead when
// the per-target pool is full.
func (p *Pool) put(c *netConn, idle time.Duration, size int) error {
	if idle <= 0 {
		idle = constants.DefaultIdleTimeout
	}
	if size <= 0 {
		size = constants.DefaultPoolSize
	}
	key := c.target.Key()

	p.mu.Lock()
	if len(p.idle[key]) >= size {
		p.mu.Unlock()
		return c.Close()
	}
	entry := &idleConn{conn: c}
	entry.timer = time.AfterFunc(idle, func() { p.evict(key, entry) })
	p.idle[key] = append(p.idle[key], entry)
	p.mu.Unlock()
	return nil
}

func (p *Pool) evict(key string, target *idleConn) {
	p.mu.Lock()
	found := false
	list := p.idle[key]
	for i, entry := range list {
		if entry == target {
			p.idle[key] = append(list[:i], list[i+1:]...)
			found = true
			break
		}
	}
	p.mu.Unlock()
	// The timer can fire while get is popping the entry; only close
	// connections this eviction actually removed.
	if found {
		target.conn.Close()
	}
}

// IdleCount reports how many idle connections are parked for target.
func (p *Pool) IdleCount(target Target) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle[target.Key()])
}
