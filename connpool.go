package gnats

import (
	"context"
	"sync/atomic"

	"github.com/jackc/puddle/v2"
)

// ConnPoolStats contains statistics about a connection pool.
type ConnPoolStats struct {
	TotalConns     int32
	IdleConns      int32
	ActiveConns    int32
	AcquireCount   uint64
	CreatedConns   uint64
	DestroyedConns uint64
	AcquireErrors  uint64
}

// ConnPool maintains a bounded set of ready connections to the server list.
// Acquired connections are handed back with Release on the resource.
type ConnPool struct {
	pool           *puddle.Pool[*Conn]
	createdConns   atomic.Int64
	destroyedConns atomic.Int64
}

// NewConnPool creates a pool of at most maxSize connections, each dialed
// with Connect using opts and servers.
func NewConnPool(opts *Options, servers *ServerList, maxSize int32) (*ConnPool, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	p := &ConnPool{}

	poolConfig := &puddle.Config[*Conn]{
		Constructor: func(ctx context.Context) (*Conn, error) {
			conn, err := Connect(ctx, opts, servers)
			if err == nil {
				p.createdConns.Add(1)
			}
			return conn, err
		},
		Destructor: func(c *Conn) {
			p.destroyedConns.Add(1)
			_ = c.Close()
		},
		MaxSize: maxSize,
	}

	pool, err := puddle.NewPool(poolConfig)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Acquire returns a pooled connection, dialing a new one if the pool has
// room and none is idle.
func (p *ConnPool) Acquire(ctx context.Context) (*puddle.Resource[*Conn], error) {
	return p.pool.Acquire(ctx)
}

// Close destroys all pooled connections.
func (p *ConnPool) Close() {
	p.pool.Close()
}

// Stats returns a snapshot of pool statistics.
func (p *ConnPool) Stats() ConnPoolStats {
	s := p.pool.Stat()
	return ConnPoolStats{
		TotalConns:     s.TotalResources(),
		IdleConns:      s.IdleResources(),
		ActiveConns:    s.AcquiredResources(),
		AcquireCount:   uint64(s.AcquireCount()),
		CreatedConns:   uint64(p.createdConns.Load()),
		DestroyedConns: uint64(p.destroyedConns.Load()),
		AcquireErrors:  uint64(s.CanceledAcquireCount()),
	}
}
