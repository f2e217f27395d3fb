package gnats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpParser_PingThenPong(t *testing.T) {
	pool := testPool(t)
	ps := NewOpParser(pool)
	input := []byte("PING\r\nPONG\r\n")

	op, json, n, err := ps.ParseOp(input)
	require.NoError(t, err)
	assert.Equal(t, OpPing, op)
	assert.Nil(t, json)
	assert.Equal(t, 6, n)
	assert.True(t, ps.ExpectingNewOp())

	op, json, n, err = ps.ParseOp(input[6:])
	require.NoError(t, err)
	assert.Equal(t, OpPong, op)
	assert.Nil(t, json)
	assert.Equal(t, 6, n)
	assert.True(t, ps.ExpectingNewOp())
}

func TestOpParser_Info(t *testing.T) {
	pool := testPool(t)
	ps := NewOpParser(pool)
	input := []byte("INFO {\"server_id\":\"abc\",\"port\":4222}\r\n")

	op, json, n, err := ps.ParseOp(input)
	require.NoError(t, err)
	require.Equal(t, OpInfo, op)
	require.NotNil(t, json)
	assert.Equal(t, len(input), n)

	id, err := json.GetString("server_id")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	port, err := json.GetInt("port")
	require.NoError(t, err)
	assert.Equal(t, int64(4222), port)
}

func TestOpParser_InfoSplitMidJSON(t *testing.T) {
	pool := testPool(t)
	ps := NewOpParser(pool)
	input := "INFO {\"server_id\":\"abc\",\"version\":\"1.2.3\",\"port\":4222,\"proto\":1}\r\n"
	split := len("INFO {\"server_id\":\"ab")

	op, json, n1, err := ps.ParseOp([]byte(input[:split]))
	require.NoError(t, err)
	assert.Equal(t, OpNone, op)
	assert.Nil(t, json)
	assert.Equal(t, split, n1)
	assert.False(t, ps.ExpectingNewOp())

	op, json, n2, err := ps.ParseOp([]byte(input[split:]))
	require.NoError(t, err)
	require.Equal(t, OpInfo, op)
	require.NotNil(t, json)
	assert.Equal(t, len(input), n1+n2)

	id, err := json.GetString("server_id")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	version, err := json.GetString("version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", version)
	port, err := json.GetInt("port")
	require.NoError(t, err)
	assert.Equal(t, int64(4222), port)
	proto, err := json.GetInt("proto")
	require.NoError(t, err)
	assert.Equal(t, int64(1), proto)
}

func TestOpParser_ResumableAtEverySplit(t *testing.T) {
	pool := testPool(t)
	input := "INFO {\"server_id\":\"abc\",\"port\":4222}\r\n"

	for k := 0; k <= len(input); k++ {
		ps := NewOpParser(pool)
		total := 0

		op, json, n, err := ps.ParseOp([]byte(input[:k]))
		require.NoError(t, err, "split at %d", k)
		total += n
		if op == OpNone {
			op, json, n, err = ps.ParseOp([]byte(input[k:]))
			require.NoError(t, err, "split at %d", k)
			total += n
		}
		require.Equal(t, OpInfo, op, "split at %d", k)
		require.NotNil(t, json, "split at %d", k)
		require.Equal(t, len(input), total, "split at %d", k)

		id, err := json.GetString("server_id")
		require.NoError(t, err, "split at %d", k)
		require.Equal(t, "abc", id, "split at %d", k)
	}
}

func TestOpParser_CaseInsensitive(t *testing.T) {
	pool := testPool(t)
	ps := NewOpParser(pool)

	op, json, _, err := ps.ParseOp([]byte("info {\"port\":1}\r\n"))
	require.NoError(t, err)
	assert.Equal(t, OpInfo, op)
	require.NotNil(t, json)

	op, _, _, err = ps.ParseOp([]byte("ping\r\n"))
	require.NoError(t, err)
	assert.Equal(t, OpPing, op)

	op, _, _, err = ps.ParseOp([]byte("PoNg\r\n"))
	require.NoError(t, err)
	assert.Equal(t, OpPong, op)
}

func TestOpParser_WhitespaceAfterInfo(t *testing.T) {
	pool := testPool(t)
	ps := NewOpParser(pool)

	op, json, _, err := ps.ParseOp([]byte("INFO \t  {\"port\":1}\r\n"))
	require.NoError(t, err)
	assert.Equal(t, OpInfo, op)
	require.NotNil(t, json)
}

func TestOpParser_ProtocolErrors(t *testing.T) {
	pool := testPool(t)
	for _, input := range []string{
		"FOO\r\n",
		"PINK\r\n",
		"PANG\r\n",
		"INFX {}\r\n",
		"INFO{}\r\n",
		"PING\rX",
		"PING\n\n",
	} {
		ps := NewOpParser(pool)
		_, _, _, err := ps.ParseOp([]byte(input))
		assert.ErrorIs(t, err, ErrProtocol, "input %q", input)
	}
}

func TestOpParser_BadInfoPayload(t *testing.T) {
	pool := testPool(t)
	ps := NewOpParser(pool)

	_, _, _, err := ps.ParseOp([]byte("INFO [1]\r\n"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe, "INFO payload must be an object")
}

func TestOpParser_SetPool(t *testing.T) {
	pool := testPool(t)
	ps := NewOpParser(pool)

	other, err := NewPool(testMemOptions(), "other")
	require.NoError(t, err)
	defer other.Release()

	require.NoError(t, ps.SetPool(other))

	// Mid-operation the pool is pinned.
	_, _, _, err = ps.ParseOp([]byte("INFO {\"a\":"))
	require.NoError(t, err)
	require.False(t, ps.ExpectingNewOp())
	assert.ErrorIs(t, ps.SetPool(pool), ErrInvalidArg)

	// Finishing the op makes it legal again.
	op, _, _, err := ps.ParseOp([]byte("1}\r\n"))
	require.NoError(t, err)
	require.Equal(t, OpInfo, op)
	assert.NoError(t, ps.SetPool(pool))
}
