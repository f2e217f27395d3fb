package gnats

import "sync/atomic"

// ConnStats contains statistics about a single connection.
// All fields are safe for concurrent access.
//
// For Prometheus integration, expose these as:
//   - Counters: InfosReceived, PingsReceived, PongsReceived, PingsSent,
//     PongsSent, ParseErrors, Reconnects
//   - Counters: BytesIn, BytesOut
//   - Gauge: PoolRecycles (rate of op-pool turnover)
type ConnStats struct {
	InfosReceived uint64 // INFO operations parsed
	PingsReceived uint64 // PING operations parsed
	PongsReceived uint64 // PONG operations parsed
	PingsSent     uint64 // Keepalive PINGs written
	PongsSent     uint64 // PONG replies written
	BytesIn       uint64 // Bytes read off the wire
	BytesOut      uint64 // Bytes written to the wire
	ParseErrors   uint64 // Malformed frames
	Reconnects    uint64 // Successful reconnects
	PoolRecycles  uint64 // Op pool recycles between operations
}

// connStatsCollector provides internal methods for updating connection
// stats. Not exported - connections update their own stats.
type connStatsCollector struct {
	stats *ConnStats
}

func newConnStatsCollector() *connStatsCollector {
	return &connStatsCollector{stats: &ConnStats{}}
}

func (c *connStatsCollector) recordOp(op Op) {
	switch op {
	case OpInfo:
		atomic.AddUint64(&c.stats.InfosReceived, 1)
	case OpPing:
		atomic.AddUint64(&c.stats.PingsReceived, 1)
	case OpPong:
		atomic.AddUint64(&c.stats.PongsReceived, 1)
	}
}

func (c *connStatsCollector) recordPingSent() {
	atomic.AddUint64(&c.stats.PingsSent, 1)
}

func (c *connStatsCollector) recordPongSent() {
	atomic.AddUint64(&c.stats.PongsSent, 1)
}

func (c *connStatsCollector) recordBytesIn(n int) {
	atomic.AddUint64(&c.stats.BytesIn, uint64(n))
}

func (c *connStatsCollector) recordBytesOut(n int) {
	atomic.AddUint64(&c.stats.BytesOut, uint64(n))
}

func (c *connStatsCollector) recordParseError() {
	atomic.AddUint64(&c.stats.ParseErrors, 1)
}

func (c *connStatsCollector) recordReconnect() {
	atomic.AddUint64(&c.stats.Reconnects, 1)
}

func (c *connStatsCollector) recordPoolRecycle() {
	atomic.AddUint64(&c.stats.PoolRecycles, 1)
}

func (c *connStatsCollector) snapshot() ConnStats {
	return ConnStats{
		InfosReceived: atomic.LoadUint64(&c.stats.InfosReceived),
		PingsReceived: atomic.LoadUint64(&c.stats.PingsReceived),
		PongsReceived: atomic.LoadUint64(&c.stats.PongsReceived),
		PingsSent:     atomic.LoadUint64(&c.stats.PingsSent),
		PongsSent:     atomic.LoadUint64(&c.stats.PongsSent),
		BytesIn:       atomic.LoadUint64(&c.stats.BytesIn),
		BytesOut:      atomic.LoadUint64(&c.stats.BytesOut),
		ParseErrors:   atomic.LoadUint64(&c.stats.ParseErrors),
		Reconnects:    atomic.LoadUint64(&c.stats.Reconnects),
		PoolRecycles:  atomic.LoadUint64(&c.stats.PoolRecycles),
	}
}
