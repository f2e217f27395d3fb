package gnats

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"

	"github.com/gowire/gnats/internal/coarsetime"
)

// Conn is a single client connection to a server. It owns the op parser and
// the arena the parser allocates from; the arena is recycled between
// operations so a long-lived connection does not accumulate per-frame
// garbage.
//
// One goroutine reads and parses (Run); writes go through a bounded queue
// flushed by the same loop. Everything else is safe to call concurrently.
type Conn struct {
	opts    *Options
	log     logr.Logger
	servers *ServerList

	mu     sync.Mutex
	addr   string
	conn   net.Conn
	closed bool

	opPool *Pool
	parser *OpParser

	info          ServerInfo
	infoReceived  bool
	connectSent   bool
	pongsOutstand int

	writeq *WriteQueue
	stats  *connStatsCollector
}

// Connect dials a server from the list and performs the INFO/CONNECT
// handshake. Dial attempts are retried with exponential backoff until ctx is
// done or the configured timeout elapses; failures count against the
// address's circuit breaker.
func Connect(ctx context.Context, opts *Options, servers *ServerList) (*Conn, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Mem.validate(); err != nil {
		return nil, err
	}
	if servers == nil || servers.Len() == 0 {
		return nil, ErrNoServersAvailable
	}

	pool, err := NewPool(opts.Mem, "op")
	if err != nil {
		return nil, err
	}
	c := &Conn{
		opts:    opts,
		log:     opts.Logger.WithName("conn"),
		servers: servers,
		opPool:  pool,
		writeq:  NewWriteQueue(opts.Mem.WriteQueueMaxBuffers),
		stats:   newConnStatsCollector(),
	}
	c.parser = NewOpParser(pool)
	pool.SetLogger(c.log)

	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conn) dial(ctx context.Context) error {
	nc, err := backoff.Retry(ctx, func() (net.Conn, error) {
		addr, err := c.servers.Select(c.opts.Name)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		var conn net.Conn
		dialErr := c.servers.Dial(addr, func() error {
			var err error
			conn, err = net.DialTimeout("tcp", addr, c.opts.ConnTimeout)
			return err
		})
		if dialErr != nil {
			c.log.V(1).Info("dial failed", "addr", addr, "error", dialErr.Error())
			return nil, dialErr
		}
		c.mu.Lock()
		c.addr = addr
		c.mu.Unlock()
		return conn, nil
	}, backoff.WithMaxElapsedTime(c.opts.ConnTimeout*4))
	if err != nil {
		return err
	}

	if c.opts.TLS != nil {
		tc := tls.Client(nc, c.opts.TLS)
		if err := tc.HandshakeContext(ctx); err != nil {
			nc.Close()
			return err
		}
		nc = tc
	}

	c.mu.Lock()
	c.conn = nc
	c.closed = false
	c.mu.Unlock()
	c.log.Info("connected", "addr", c.Addr())
	return nil
}

// Addr returns the address of the server this connection dialed.
func (c *Conn) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// ServerInfo returns a copy of the last INFO received.
func (c *Conn) ServerInfo() ServerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// Stats returns a snapshot of the connection counters.
func (c *Conn) Stats() ConnStats {
	return c.stats.snapshot()
}

// Run reads and dispatches server operations until ctx is done or the
// connection fails. It flushes queued writes between reads and sends
// keepalive PINGs at the configured interval.
func (c *Conn) Run(ctx context.Context) error {
	lastPing := coarsetime.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isClosed() {
			return ErrConnectionClosed
		}

		if err := c.flushWrites(); err != nil {
			return err
		}

		// The loop wakes at least once per read timeout, so coarse time is
		// plenty for keepalive scheduling.
		if c.opts.PingInterval > 0 && coarsetime.Since(lastPing) >= c.opts.PingInterval {
			if err := c.Ping(); err != nil {
				return err
			}
			lastPing = coarsetime.Now()
		}

		if err := c.readAndDispatch(ctx); err != nil {
			return err
		}
	}
}

// readAndDispatch performs one read into the pool's read buffer and parses
// every complete operation it holds.
func (c *Conn) readAndDispatch(ctx context.Context) error {
	rb, err := c.opPool.GetReadBuffer()
	if err != nil {
		return err
	}

	if rb.UnreadLen() == 0 {
		deadline := time.Now().Add(c.opts.ConnTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return err
		}
		n, err := c.conn.Read(rb.Writable())
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil
			}
			c.markClosed()
			return err
		}
		rb.MarkWritten(n)
		c.stats.recordBytesIn(n)
	}

	for rb.UnreadLen() > 0 {
		op, doc, n, err := c.parser.ParseOp(rb.Unread())
		rb.MarkConsumed(n)
		if err != nil {
			c.stats.recordParseError()
			return err
		}
		if op == OpNone {
			break
		}
		if err := c.dispatch(op, doc); err != nil {
			return err
		}
	}

	// Between operations the arena holds nothing the parser still needs, so
	// give the memory back.
	if c.parser.ExpectingNewOp() {
		recycled, err := c.opPool.Recycle()
		if err != nil {
			return err
		}
		c.opPool = recycled
		if err := c.parser.SetPool(recycled); err != nil {
			return err
		}
		c.stats.recordPoolRecycle()
	}
	return nil
}

func (c *Conn) dispatch(op Op, doc *JSON) error {
	c.stats.recordOp(op)
	c.log.V(1).Info("completed op", "op", op.String())

	switch op {
	case OpInfo:
		return c.processInfo(doc)
	case OpPing:
		return c.processPing()
	case OpPong:
		c.processPong()
		return nil
	default:
		return fmt.Errorf("%w: unexpected op %d", ErrProtocol, op)
	}
}

// processInfo applies an INFO payload: it refreshes the cached server info,
// merges gossiped cluster addresses, and on the first INFO completes the
// handshake by sending CONNECT.
func (c *Conn) processInfo(doc *JSON) error {
	c.mu.Lock()
	err := unmarshalServerInfo(doc, &c.info)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	info := c.info
	first := !c.infoReceived
	c.infoReceived = true
	c.mu.Unlock()

	c.servers.Merge(info.ConnectURLs)
	c.log.V(1).Info("server info", "id", info.ID, "version", info.Version, "max_payload", info.MaxPayload)

	if first {
		return c.sendConnect(&info)
	}
	return nil
}

func (c *Conn) sendConnect(info *ServerInfo) error {
	pool, err := NewPool(c.opts.Mem, "connect")
	if err != nil {
		return err
	}
	defer pool.Release()

	buf, err := pool.GetGrowableBuf(256)
	if err != nil {
		return err
	}
	if err := marshalConnect(buf, c.opts, info.Headers, c.opts.NoResponders && info.Headers); err != nil {
		return err
	}
	// The queue must outlive the pool backing buf.
	frame := make([]byte, buf.Len())
	copy(frame, buf.Bytes())

	c.mu.Lock()
	c.connectSent = true
	c.mu.Unlock()
	return c.enqueue(frame)
}

func (c *Conn) processPing() error {
	c.stats.recordPongSent()
	return c.enqueue([]byte(pongFrame))
}

func (c *Conn) processPong() {
	c.mu.Lock()
	if c.pongsOutstand > 0 {
		c.pongsOutstand--
	}
	c.mu.Unlock()
}

// Ping queues a keepalive PING.
func (c *Conn) Ping() error {
	c.mu.Lock()
	c.pongsOutstand++
	c.mu.Unlock()
	c.stats.recordPingSent()
	return c.enqueue([]byte(pingFrame))
}

// PongsOutstanding returns the number of PINGs not yet answered.
func (c *Conn) PongsOutstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pongsOutstand
}

func (c *Conn) enqueue(frame []byte) error {
	return c.writeq.Push(frame)
}

func (c *Conn) flushWrites() error {
	for {
		frame := c.writeq.Pop()
		if frame == nil {
			return nil
		}
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.ConnTimeout)); err != nil {
			return err
		}
		n, err := c.conn.Write(frame)
		c.stats.recordBytesOut(n)
		if err != nil {
			c.markClosed()
			return err
		}
		c.log.V(2).Info("wrote frame", "bytes", n)
	}
}

// Reconnect closes the current transport and dials again, possibly to a
// different server. Parser and pool state are rebuilt from scratch.
func (c *Conn) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.closed = false
	c.infoReceived = false
	c.connectSent = false
	c.pongsOutstand = 0
	c.mu.Unlock()

	c.opPool.Release()
	pool, err := NewPool(c.opts.Mem, "op")
	if err != nil {
		return err
	}
	pool.SetLogger(c.log)
	c.opPool = pool
	c.parser = NewOpParser(pool)

	if err := c.dial(ctx); err != nil {
		return err
	}
	c.stats.recordReconnect()
	return nil
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// markClosed marks the connection as closed (must not hold the lock).
func (c *Conn) markClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Close shuts the connection down and releases the parse arena.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	c.writeq.Close()
	c.opPool.Release()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
