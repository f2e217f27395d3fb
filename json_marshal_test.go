package gnats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalBuf(t *testing.T) *Buf {
	t.Helper()
	buf, err := testPool(t).GetGrowableBuf(64)
	require.NoError(t, err)
	return buf
}

func TestMarshalLong(t *testing.T) {
	buf := marshalBuf(t)
	require.NoError(t, MarshalLong(buf, false, "port", 4222))
	require.NoError(t, MarshalLong(buf, true, "neg", -1))
	assert.Equal(t, `"port":4222,"neg":-1`, buf.String())
}

func TestMarshalULong(t *testing.T) {
	buf := marshalBuf(t)
	require.NoError(t, MarshalULong(buf, false, "max", 18446744073709551615))
	assert.Equal(t, `"max":18446744073709551615`, buf.String())
}

func TestMarshalDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, `"d":"0s"`},
		{1500000 * time.Nanosecond, `"d":"1.5ms"`},
		{90 * time.Second, `"d":"1m30s"`},
		{time.Hour + time.Minute, `"d":"1h1m0s"`},
		{123 * time.Nanosecond, `"d":"123ns"`},
	}
	for _, tc := range cases {
		buf := marshalBuf(t)
		require.NoError(t, MarshalDuration(buf, false, "d", tc.d))
		assert.Equal(t, tc.want, buf.String(), "duration %v", tc.d)
	}
}

func TestEncodeTimeUTC(t *testing.T) {
	cases := []struct {
		nanos int64
		want  string
	}{
		{0, "0001-01-01T00:00:00Z"},
		{time.Date(2021, 6, 23, 18, 22, 0, 0, time.UTC).UnixNano(), "2021-06-23T18:22:00Z"},
		{time.Date(2021, 6, 23, 18, 22, 0, 123000000, time.UTC).UnixNano(), "2021-06-23T18:22:00.123Z"},
		{time.Date(2021, 6, 23, 18, 22, 0, 123456789, time.UTC).UnixNano(), "2021-06-23T18:22:00.123456789Z"},
	}
	for _, tc := range cases {
		buf := marshalBuf(t)
		require.NoError(t, EncodeTimeUTC(buf, tc.nanos))
		assert.Equal(t, tc.want, buf.String())
	}
}

func TestMarshalConnect_Minimal(t *testing.T) {
	buf := marshalBuf(t)
	opts := DefaultOptions()
	opts.Name = "cli"

	require.NoError(t, marshalConnect(buf, opts, false, false))
	want := `CONNECT {"verbose":false,"pedantic":false,"tls_required":false,` +
		`"name":"cli","lang":"go","version":"` + Version + `","protocol":1,` +
		`"echo":true,"headers":false,"no_responders":false}` + "\r\n"
	assert.Equal(t, want, buf.String())
}

func TestMarshalConnect_Credentials(t *testing.T) {
	buf := marshalBuf(t)
	opts := DefaultOptions()
	opts.User = "u"
	opts.Pass = "p"
	opts.AuthToken = "tok"
	opts.NoEcho = true

	require.NoError(t, marshalConnect(buf, opts, true, true))
	s := buf.String()
	assert.Contains(t, s, `"user":"u","pass":"p","auth_token":"tok",`)
	assert.Contains(t, s, `"echo":false,"headers":true,"no_responders":true}`)
}

func TestMarshalConnect_RoundTripsThroughParser(t *testing.T) {
	pool := testPool(t)
	buf, err := pool.GetGrowableBuf(64)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Name = "round-trip"
	require.NoError(t, marshalConnect(buf, opts, true, false))

	payload := buf.Bytes()[len("CONNECT "):]
	p, err := NewJSONParser(pool)
	require.NoError(t, err)
	doc, _, err := p.Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, doc)

	name, err := doc.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "round-trip", name)
	lang, err := doc.GetString("lang")
	require.NoError(t, err)
	assert.Equal(t, "go", lang)
	proto, err := doc.GetInt("protocol")
	require.NoError(t, err)
	assert.Equal(t, int64(1), proto)
	hdrs, err := doc.GetBool("headers")
	require.NoError(t, err)
	assert.True(t, hdrs)
}
