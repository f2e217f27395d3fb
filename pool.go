package gnats

import (
	"github.com/go-logr/logr"
)

const (
	// pageHeaderSize is reserved at the start of every small page, so the
	// usable capacity of a page is PageSize - pageHeaderSize. Keeping the
	// reservation makes capacity math identical whether a span lives in a
	// fresh page or a recycled one.
	pageHeaderSize = 16

	minPageSize = 256
)

// page is a fixed-size arena chunk. The frontier (used) only ever advances,
// except when the most recently carved span is handed back by a growing
// buffer.
type page struct {
	next *page
	mem  []byte
	used int
}

func (pg *page) remaining() int { return len(pg.mem) - pg.used }

// grab bump-allocates size bytes from the page. The caller must have checked
// remaining().
func (pg *page) grab(size int) []byte {
	off := pg.used
	pg.used += size
	return pg.mem[off : off+size : off+size]
}

// large is an individually heap-allocated block, used when a request exceeds
// what fits in a small page. The list is LIFO: head is the most recent.
type large struct {
	prev *large
	data []byte
}

// Pool is an arena allocator: a chain of small bump-allocated pages plus a
// list of large blocks. All allocations are zeroed. A pool is reference
// counted and recyclable; releasing the last reference drops every page and
// block at once.
//
// A pool is not safe for concurrent use. The owner drives all allocation from
// one goroutine; completed trees may be shared read-only afterwards.
type Pool struct {
	name string
	opts MemOptions
	log  logr.Logger

	refs  int
	small *page // head: first page allocated, scanned first
	large *large

	readChain *ReadChain
}

// NewPool creates a pool with one page pre-allocated. The name only shows up
// in diagnostics.
func NewPool(opts MemOptions, name string) (*Pool, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	p := &Pool{
		name: name,
		opts: opts,
		log:  logr.Discard(),
		refs: 1,
	}
	p.small = p.newPage()
	return p, nil
}

// SetLogger routes pool diagnostics (V(2)) to l.
func (p *Pool) SetLogger(l logr.Logger) { p.log = l }

// Name returns the diagnostic name the pool was created with.
func (p *Pool) Name() string { return p.name }

func (p *Pool) newPage() *page {
	return &page{
		mem:  make([]byte, p.opts.PageSize),
		used: pageHeaderSize,
	}
}

// smallMax is the largest request served from a page.
func (p *Pool) smallMax() int { return p.opts.PageSize - pageHeaderSize }

// Retain adds an owner. Each Retain must be paired with a Release.
func (p *Pool) Retain() { p.refs++ }

// Release drops one reference; at zero the whole arena is surrendered.
func (p *Pool) Release() {
	if p == nil || p.refs == 0 {
		return
	}
	p.refs--
	if p.refs == 0 {
		p.log.V(2).Info("pool destroyed", "pool", p.name)
		p.small = nil
		p.large = nil
		p.readChain = nil
	}
}

// Alloc returns a zeroed span of the requested size. Returns nil only for a
// released pool or a non-positive size.
func (p *Pool) Alloc(size int) []byte {
	if p.small == nil || size <= 0 {
		return nil
	}
	if size > p.smallMax() {
		_, data := p.allocLarge(size)
		return data
	}
	data, _ := p.allocSmall(size)
	return data
}

// allocSmall bump-allocates from the first page with room, appending a fresh
// page at the tail when none fits. Returns the span and its page.
func (p *Pool) allocSmall(size int) ([]byte, *page) {
	var last *page
	for pg := p.small; pg != nil; pg = pg.next {
		last = pg
		if size > pg.remaining() {
			continue
		}
		return pg.grab(size), pg
	}
	pg := p.newPage()
	last.next = pg
	p.log.V(2).Info("pool page added", "pool", p.name, "pageSize", p.opts.PageSize)
	return pg.grab(size), pg
}

// allocLarge allocates a dedicated block and links it at the head of the
// large list.
func (p *Pool) allocLarge(size int) (*large, []byte) {
	l := &large{
		prev: p.large,
		data: make([]byte, size),
	}
	p.large = l
	p.log.V(2).Info("pool large block", "pool", p.name, "size", size)
	return l, l.data
}

// Recycle prepares the pool for a new generation: all large blocks are
// dropped, all pages but the first two are dropped, the survivors are wiped,
// and the read chain keeps only its tail buffer so unconsumed bytes survive
// into the next operation.
//
// Recycling requires sole ownership. With more than one owner it degrades to
// releasing this reference and building a brand-new pool under the same name.
func (p *Pool) Recycle() (*Pool, error) {
	if p == nil || p.small == nil {
		return nil, ErrPoolRecycled
	}
	if p.refs > 1 {
		p.log.V(2).Info("pool not recyclable, replacing", "pool", p.name, "refs", p.refs)
		name, opts, log := p.name, p.opts, p.log
		p.Release()
		np, err := NewPool(opts, name)
		if err != nil {
			return nil, err
		}
		np.SetLogger(log)
		return np, nil
	}

	keep := p.recycleReadChain()

	p.large = nil

	// Keep the first two pages: one for general scratch, one because the
	// next operation's buffer will typically claim a page to itself.
	first := p.small
	second := first.next
	clear(first.mem)
	first.used = pageHeaderSize
	if second != nil {
		second.next = nil
		clear(second.mem)
		second.used = pageHeaderSize
	}

	p.readChain = nil
	if keep != nil {
		p.readChain = &ReadChain{head: keep, tail: keep}
	}
	p.log.V(2).Info("pool recycled", "pool", p.name)
	return p, nil
}

// recycleReadChain drops every read buffer except the tail. If the tail still
// holds unread bytes it is preserved as-is; otherwise its cursors are reset so
// its storage is reused empty.
func (p *Pool) recycleReadChain() *ReadBuffer {
	if p.readChain == nil || p.readChain.tail == nil {
		return nil
	}
	rb := p.readChain.tail
	rb.next = nil
	if rb.UnreadLen() == 0 {
		rb.readFrom = 0
		rb.len = 0
	}
	return rb
}
