package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJumpHash_InRange(t *testing.T) {
	for n := 1; n <= 16; n++ {
		for key := uint64(0); key < 1000; key++ {
			b := JumpHash(key, n)
			assert.GreaterOrEqual(t, b, 0)
			assert.Less(t, b, n)
		}
	}
}

func TestJumpHash_Deterministic(t *testing.T) {
	for key := uint64(0); key < 100; key++ {
		assert.Equal(t, JumpHash(key, 7), JumpHash(key, 7))
	}
}

func TestJumpHash_SingleBucket(t *testing.T) {
	for key := uint64(0); key < 100; key++ {
		assert.Equal(t, 0, JumpHash(key, 1))
	}
}

func TestJumpHash_NoBuckets(t *testing.T) {
	assert.Equal(t, 0, JumpHash(42, 0))
	assert.Equal(t, 0, JumpHash(42, -1))
}

func TestJumpHash_MinimalMovement(t *testing.T) {
	// Growing the bucket count moves only keys that land on the new bucket.
	moved := 0
	const keys = 10000
	for key := uint64(0); key < keys; key++ {
		before := JumpHash(key, 10)
		after := JumpHash(key, 11)
		if before != after {
			moved++
			assert.Equal(t, 10, after, "a moved key must land on the new bucket")
		}
	}
	// Roughly 1/11 of the keys move.
	assert.InDelta(t, keys/11, moved, keys/20)
}
