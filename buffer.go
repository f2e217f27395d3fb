package gnats

// maxBufCap caps buffer growth; requests at or beyond it are refused.
const maxBufCap = 0x7FFFFFFF

// Buf is a byte sequence with a logical length and a capacity, carved either
// out of a small arena page or a dedicated large block.
//
// A fixed buffer may be resized exactly once after creation; asking it to
// grow again fails with ErrInsufficientBuffer. A growable buffer doubles (or
// jumps straight to the requirement, whichever is larger) and migrates from
// page to large block once it outgrows a page. Downstream code relies on the
// contents surviving each migration byte-for-byte.
type Buf struct {
	data []byte
	len  int
	cap  int

	pool    *Pool
	small   *page // page currently hosting the span, nil once migrated
	off     int   // span offset within small
	lg      *large
	fixed   bool
	resized bool // fixed buffer already used its single resize
}

// GetFixedBuf returns a buffer of the given capacity that tolerates a single
// resize; any growth after that fails.
func (p *Pool) GetFixedBuf(capacity int) (*Buf, error) {
	return p.newBuf(capacity, true)
}

// GetGrowableBuf returns a buffer that expands on demand. A zero initial
// capacity is bumped to one byte; growth is greedy from there.
func (p *Pool) GetGrowableBuf(capacity int) (*Buf, error) {
	return p.newBuf(capacity, false)
}

func (p *Pool) newBuf(capacity int, fixed bool) (*Buf, error) {
	if p == nil || p.small == nil {
		return nil, ErrPoolRecycled
	}
	if capacity == 0 {
		if fixed {
			return nil, ErrInvalidArg
		}
		capacity = 1
	}
	b := &Buf{pool: p, fixed: fixed}
	if err := b.expand(capacity); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Buf) Len() int      { return b.len }
func (b *Buf) Cap() int      { return b.cap }
func (b *Buf) Bytes() []byte { return b.data[:b.len] }
func (b *Buf) String() string {
	return string(b.data[:b.len])
}

// Reset empties the buffer without releasing its storage.
func (b *Buf) Reset() {
	b.len = 0
}

// AppendByte adds one byte, growing if needed.
func (b *Buf) AppendByte(c byte) error {
	if b.len+1 > b.cap {
		if err := b.expand(b.len + 1); err != nil {
			return err
		}
	}
	b.data[b.len] = c
	b.len++
	return nil
}

// Append adds data, growing if needed.
func (b *Buf) Append(data []byte) error {
	n := b.len + len(data)
	if n > b.cap {
		if err := b.expand(n); err != nil {
			return err
		}
	}
	copy(b.data[b.len:], data)
	b.len = n
	return nil
}

// AppendString adds the bytes of s.
func (b *Buf) AppendString(s string) error {
	n := b.len + len(s)
	if n > b.cap {
		if err := b.expand(n); err != nil {
			return err
		}
	}
	copy(b.data[b.len:], s)
	b.len = n
	return nil
}

// largeCapFor doubles the current capacity or jumps to the requirement,
// whichever is larger, rounded up to whole pages.
func (p *Pool) largeCapFor(current, required int) int {
	newCap := 2 * current
	if newCap < required {
		newCap = required
	}
	ps := p.opts.PageSize
	return (newCap + ps - 1) / ps * ps
}

// expand grows the buffer to at least capacity.
func (b *Buf) expand(capacity int) error {
	if capacity < b.len || b.pool == nil {
		return ErrInvalidArg
	}
	if capacity >= maxBufCap {
		return ErrTooLarge
	}
	if capacity <= b.cap {
		return nil
	}
	// Only resize a fixed buffer once after creation.
	if b.fixed && b.cap != 0 {
		if b.resized {
			return ErrInsufficientBuffer
		}
		b.resized = true
	}

	// Already in a large block: grow the block in place.
	if b.lg != nil {
		newCap := b.pool.largeCapFor(b.cap, capacity)
		nd := make([]byte, newCap)
		copy(nd, b.data[:b.len])
		b.lg.data = nd
		b.data = nd
		b.cap = newCap
		return nil
	}

	prevSmall, prevOff, prevCap := b.small, b.off, b.cap

	var data []byte
	var newCap int
	switch {
	case capacity > b.pool.smallMax():
		// Outgrew pages entirely, migrate to a large block.
		newCap = b.pool.largeCapFor(b.cap, capacity)
		lg, d := b.pool.allocLarge(newCap)
		b.small = nil
		b.lg = lg
		data = d
	case b.fixed:
		// Fixed buffers get a plain pool allocation of the exact size,
		// never tracked for reclamation.
		data, _ = b.pool.allocSmall(capacity)
		newCap = capacity
		b.small = nil
	default:
		// Take a whole page's worth since we may well be expanding
		// again; remember where the span sits so the page can take the
		// space back if we migrate later.
		newCap = b.pool.smallMax()
		d, pg := b.pool.allocSmall(newCap)
		data = d
		b.small = pg
		b.off = pg.used - newCap
		b.lg = nil
	}

	copy(data, b.data[:b.len])
	b.data = data
	b.cap = newCap

	// Hand the vacated span back to its page, but only when it is still the
	// page's most recent allocation; anything else would hand back memory
	// in the middle of the frontier. An unreclaimed span just fragments,
	// which recycling bounds.
	if prevSmall != nil && prevSmall.used == prevOff+prevCap {
		prevSmall.used -= prevCap
		clear(prevSmall.mem[prevSmall.used : prevSmall.used+prevCap])
	}
	return nil
}

// ReadBuffer is one link of the read chain: raw storage the I/O layer writes
// into, with a written length and a read cursor trailing behind it.
type ReadBuffer struct {
	data     []byte
	len      int // bytes written by the I/O layer
	readFrom int // bytes already consumed by the parser
	next     *ReadBuffer
}

// Available returns the spare capacity left for the I/O layer.
func (rb *ReadBuffer) Available() int { return len(rb.data) - rb.len }

// UnreadLen returns how many written bytes the parser has not consumed yet.
func (rb *ReadBuffer) UnreadLen() int { return rb.len - rb.readFrom }

// Unread returns the written-but-unconsumed byte range.
func (rb *ReadBuffer) Unread() []byte { return rb.data[rb.readFrom:rb.len] }

// Writable returns the spare byte range for the I/O layer to fill; follow
// with MarkWritten.
func (rb *ReadBuffer) Writable() []byte { return rb.data[rb.len:] }

// MarkWritten records n bytes filled in by the I/O layer.
func (rb *ReadBuffer) MarkWritten(n int) { rb.len += n }

// MarkConsumed advances the read cursor by n bytes.
func (rb *ReadBuffer) MarkConsumed(n int) { rb.readFrom += n }

// ReadChain is the ordered list of read buffers for one pool generation. It
// exists so the I/O layer can always be handed a buffer with spare room while
// unconsumed trailing bytes survive a pool recycle.
type ReadChain struct {
	head *ReadBuffer
	tail *ReadBuffer
}

// Head returns the oldest buffer with potentially unread bytes.
func (rc *ReadChain) Head() *ReadBuffer { return rc.head }

// GetReadBuffer returns a read buffer with at least ReadBufferMin spare
// capacity, chaining a fresh one when the current tail is too full.
func (p *Pool) GetReadBuffer() (*ReadBuffer, error) {
	if p.small == nil {
		return nil, ErrPoolRecycled
	}
	if p.readChain == nil {
		p.readChain = &ReadChain{}
	}
	rc := p.readChain
	if rc.tail != nil && rc.tail.Available() >= p.opts.ReadBufferMin {
		return rc.tail, nil
	}

	// Raw storage for I/O, allocated outside the page chain so a recycle
	// can keep just this buffer alive.
	rb := &ReadBuffer{data: make([]byte, p.opts.ReadBufferSize)}
	if rc.tail == nil {
		rc.head = rb
		rc.tail = rb
	} else {
		rc.tail.next = rb
		rc.tail = rb
	}
	return rb, nil
}
