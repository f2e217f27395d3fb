package gnats

import (
	"crypto/tls"
	"time"

	"github.com/go-logr/logr"
)

// MemOptions tunes the arena allocator and the buffers carved out of it.
// The zero value is not usable; start from DefaultMemOptions.
type MemOptions struct {
	// PageSize is the size of one small arena page. Allocations larger than
	// a page (minus the page header) go to dedicated large blocks.
	PageSize int

	// ReadBufferMin is the least spare capacity a read buffer must offer
	// before the read chain hands it back to the I/O layer; below that a
	// fresh buffer is chained.
	ReadBufferMin int

	// ReadBufferSize is the allocation size of each read buffer.
	ReadBufferSize int

	// WriteQueueBuffers and WriteQueueMaxBuffers bound the outgoing frame
	// queue: the initial ring capacity and the hard limit.
	WriteQueueBuffers    int
	WriteQueueMaxBuffers int

	// MaxNested bounds JSON nesting depth (arrays and objects combined).
	MaxNested int
}

// DefaultMemOptions mirrors the tuning the engine was profiled with.
func DefaultMemOptions() MemOptions {
	return MemOptions{
		PageSize:             4096,
		ReadBufferMin:        1024,
		ReadBufferSize:       64 * 1024,
		WriteQueueBuffers:    16,
		WriteQueueMaxBuffers: 1024,
		MaxNested:            100,
	}
}

func (o MemOptions) validate() error {
	if o.PageSize < minPageSize || o.ReadBufferSize <= 0 || o.ReadBufferMin <= 0 ||
		o.ReadBufferMin > o.ReadBufferSize || o.MaxNested <= 0 ||
		o.WriteQueueBuffers <= 0 || o.WriteQueueMaxBuffers < o.WriteQueueBuffers {
		return ErrInvalidArg
	}
	return nil
}

// Options configures a connection. Nil-safe: Connect treats a nil *Options
// as DefaultOptions().
type Options struct {
	// Name is the client name reported in the CONNECT handshake.
	Name string

	Verbose  bool
	Pedantic bool
	NoEcho   bool

	// Credentials; empty fields are omitted from the CONNECT frame.
	User      string
	Pass      string
	AuthToken string

	// TLS, when set, wraps the dialed socket.
	TLS *tls.Config

	Headers      bool
	NoResponders bool

	ConnTimeout  time.Duration
	PingInterval time.Duration

	// Logger receives connection and pool diagnostics. Defaults to
	// logr.Discard(): the library never logs unless asked to.
	Logger logr.Logger

	Mem MemOptions
}

// DefaultOptions returns the options used when Connect is given nil.
func DefaultOptions() *Options {
	return &Options{
		Name:         "gnats",
		ConnTimeout:  5 * time.Second,
		PingInterval: 2 * time.Minute,
		Logger:       logr.Discard(),
		Mem:          DefaultMemOptions(),
	}
}
