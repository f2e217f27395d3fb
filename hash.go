package gnats

import (
	"encoding/binary"
)

const (
	hashOff32 = 2166136261
	hashPrime = 709607

	maxBuckets = 1<<30 - 1
)

// HashBytes is a Jesteress-style FNV1a derivative: the key is consumed in
// 16, 8, 4 and 1 byte chunks, each folded in with XOR-then-multiply, finished
// with a 16-bit shift fold. Cheap on the short ASCII keys the protocol uses.
func HashBytes(data []byte) uint32 {
	i := 0
	dlen := len(data)
	h := uint32(hashOff32)

	for ; dlen >= 16; dlen -= 16 {
		k1 := binary.LittleEndian.Uint64(data[i:])
		k2 := binary.LittleEndian.Uint64(data[i+4:])
		h = uint32((uint64(h) ^ ((k1<<5 | k1>>59) ^ k2)) * hashPrime)
		i += 16
	}

	// Leftovers: 0..15 bytes.
	if dlen&8 != 0 {
		k1 := binary.LittleEndian.Uint64(data[i:])
		h = uint32((uint64(h) ^ k1) * hashPrime)
		i += 8
	}
	if dlen&4 != 0 {
		k3 := binary.LittleEndian.Uint32(data[i:])
		h = uint32((uint64(h) ^ uint64(k3)) * hashPrime)
		i += 4
	}
	if dlen&1 != 0 {
		h = (h ^ uint32(data[i])) * hashPrime
	}

	return h ^ (h >> 16)
}

// HashString hashes a key without copying it.
func HashString(key string) uint32 {
	// Small keys dominate; the conversion does not escape.
	return HashBytes([]byte(key))
}

type strHashEntry[V any] struct {
	next *strHashEntry[V]
	key  string
	hk   uint32
	data V
}

// StrHash is an open-chaining hash table keyed by string. It belongs to a
// pool generation: tear it down by releasing the pool, never entry by entry.
// Not safe for concurrent use.
type StrHash[V any] struct {
	pool      *Pool
	bkts      []*strHashEntry[V]
	mask      uint32
	used      int
	canResize bool
}

// NewStrHash creates a table with initialSize buckets, rounded up to a power
// of two.
func NewStrHash[V any](pool *Pool, initialSize int) (*StrHash[V], error) {
	if initialSize <= 0 || initialSize > maxBuckets || pool == nil {
		return nil, ErrInvalidArg
	}
	if initialSize&(initialSize-1) != 0 {
		initialSize--
		initialSize |= initialSize >> 1
		initialSize |= initialSize >> 2
		initialSize |= initialSize >> 4
		initialSize |= initialSize >> 8
		initialSize |= initialSize >> 16
		initialSize++
	}
	return &StrHash[V]{
		pool:      pool,
		bkts:      make([]*strHashEntry[V], initialSize),
		mask:      uint32(initialSize - 1),
		canResize: true,
	}, nil
}

// Count returns the number of entries.
func (h *StrHash[V]) Count() int { return h.used }

// Set stores value under key, replacing an existing entry with an equal key.
// Exceeding a load factor of 1 triggers a grow-by-doubling, unless an
// iterator currently suppresses resizing. A growth failure is reported but
// leaves every entry intact.
func (h *StrHash[V]) Set(key string, value V) error {
	hk := HashString(key)
	index := hk & h.mask

	for e := h.bkts[index]; e != nil; e = e.next {
		if e.hk != hk || e.key != key {
			continue
		}
		e.data = value
		return nil
	}

	h.bkts[index] = &strHashEntry[V]{
		next: h.bkts[index],
		key:  key,
		hk:   hk,
		data: value,
	}
	h.used++

	if h.canResize && h.used > len(h.bkts) {
		return h.grow()
	}
	return nil
}

// Get looks up key, reporting whether it was present.
func (h *StrHash[V]) Get(key string) (V, bool) {
	hk := HashString(key)
	for e := h.bkts[hk&h.mask]; e != nil; e = e.next {
		if e.hk == hk && e.key == key {
			return e.data, true
		}
	}
	var zero V
	return zero, false
}

func (h *StrHash[V]) grow() error {
	if len(h.bkts) >= maxBuckets {
		return ErrTooLarge
	}
	return h.resize(2 * len(h.bkts))
}

func (h *StrHash[V]) resize(newSize int) error {
	newMask := uint32(newSize - 1)
	bkts := make([]*strHashEntry[V], newSize)

	for _, e := range h.bkts {
		for e != nil {
			ne := e
			e = e.next

			idx := ne.hk & newMask
			ne.next = bkts[idx]
			bkts[idx] = ne
		}
	}

	h.bkts = bkts
	h.mask = newMask
	return nil
}

// StrHashIter walks the table bucket by bucket, chain by chain. While an
// iterator is live the table will not resize, so the walk never sees a bucket
// twice; call Done to restore resizing.
type StrHashIter[V any] struct {
	hash    *StrHash[V]
	current *strHashEntry[V]
	currBkt int
	started bool
}

// Iter starts an iteration and suppresses resizing until Done.
func (h *StrHash[V]) Iter() *StrHashIter[V] {
	h.canResize = false
	return &StrHashIter[V]{hash: h, current: h.bkts[0]}
}

// Next yields the next entry, or ok == false at the end of the table.
func (it *StrHashIter[V]) Next() (key string, value V, ok bool) {
	for it.current == nil {
		if it.currBkt >= len(it.hash.bkts)-1 {
			var zero V
			return "", zero, false
		}
		it.currBkt++
		it.current = it.hash.bkts[it.currBkt]
	}
	it.started = true
	e := it.current
	it.current = e.next
	return e.key, e.data, true
}

// Done releases the iterator and lets the table resize again.
func (it *StrHashIter[V]) Done() {
	it.hash.canResize = true
}
