package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLower(t *testing.T) {
	assert.Equal(t, byte('a'), ToLower('A'))
	assert.Equal(t, byte('z'), ToLower('Z'))
	assert.Equal(t, byte('a'), ToLower('a'))
	assert.Equal(t, byte('5'), ToLower('5'))
	assert.Equal(t, byte('{'), ToLower('{'))
}

func TestToUpper(t *testing.T) {
	assert.Equal(t, byte('A'), ToUpper('a'))
	assert.Equal(t, byte('Z'), ToUpper('z'))
	assert.Equal(t, byte('A'), ToUpper('A'))
	assert.Equal(t, byte('\r'), ToUpper('\r'))
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold([]byte("PING"), "ping"))
	assert.True(t, EqualFold([]byte("pOnG"), "pong"))
	assert.False(t, EqualFold([]byte("PING"), "pong"))
	assert.False(t, EqualFold([]byte("PIN"), "ping"))
	assert.True(t, EqualFold(nil, ""))
}
