package gnats

import (
	"strconv"
	"time"
)

// MarshalLong appends `"name":value` to buf, with a leading comma when
// comma is true.
func MarshalLong(buf *Buf, comma bool, name string, v int64) error {
	return marshalNum(buf, comma, name, strconv.FormatInt(v, 10))
}

// MarshalULong appends `"name":value` to buf for an unsigned value.
func MarshalULong(buf *Buf, comma bool, name string, v uint64) error {
	return marshalNum(buf, comma, name, strconv.FormatUint(v, 10))
}

func marshalNum(buf *Buf, comma bool, name string, lit string) error {
	start := "\""
	if comma {
		start = ",\""
	}
	if err := buf.AppendString(start); err != nil {
		return err
	}
	if err := buf.AppendString(name); err != nil {
		return err
	}
	if err := buf.AppendString("\":"); err != nil {
		return err
	}
	return buf.AppendString(lit)
}

// MarshalDuration appends `"name":"1m30s"` to buf, formatting the duration
// with the largest unit at most hours and trailing zero fractions dropped
// ("0s", "1.5ms", "1m30s").
func MarshalDuration(buf *Buf, comma bool, name string, d time.Duration) error {
	start := "\""
	if comma {
		start = ",\""
	}
	if err := buf.AppendString(start); err != nil {
		return err
	}
	if err := buf.AppendString(name); err != nil {
		return err
	}
	if err := buf.AppendString("\":\""); err != nil {
		return err
	}
	if err := buf.AppendString(d.String()); err != nil {
		return err
	}
	return buf.AppendByte('"')
}

// timeLayoutUTC trims trailing zeros from the fractional seconds and drops
// the dot entirely when the fraction is zero.
const timeLayoutUTC = "2006-01-02T15:04:05.999999999Z07:00"

// EncodeTimeUTC appends an RFC3339 UTC timestamp for the given nanoseconds
// since the Unix epoch. A zero input encodes as the zero timestamp
// "0001-01-01T00:00:00Z".
func EncodeTimeUTC(buf *Buf, nanos int64) error {
	if nanos == 0 {
		return buf.AppendString("0001-01-01T00:00:00Z")
	}
	return buf.AppendString(time.Unix(0, nanos).UTC().Format(timeLayoutUTC))
}

func boolStr(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// marshalConnect builds the CONNECT frame sent after the server's INFO,
// terminated by CRLF. Optional credential fields are emitted only when set.
func marshalConnect(buf *Buf, opts *Options, hdrs, noResponders bool) error {
	parts := []string{
		"CONNECT {\"verbose\":", boolStr(opts.Verbose),
		",\"pedantic\":", boolStr(opts.Pedantic),
		",",
	}
	for _, s := range parts {
		if err := buf.AppendString(s); err != nil {
			return err
		}
	}
	if opts.User != "" {
		if err := buf.AppendString("\"user\":\"" + opts.User + "\","); err != nil {
			return err
		}
	}
	if opts.Pass != "" {
		if err := buf.AppendString("\"pass\":\"" + opts.Pass + "\","); err != nil {
			return err
		}
	}
	if opts.AuthToken != "" {
		if err := buf.AppendString("\"auth_token\":\"" + opts.AuthToken + "\","); err != nil {
			return err
		}
	}
	parts = []string{
		"\"tls_required\":", boolStr(opts.TLS != nil),
		",\"name\":\"", opts.Name,
		"\",\"lang\":\"", clientLang,
		"\",\"version\":\"", Version,
		"\",\"protocol\":", strconv.Itoa(clientProtoInfo),
		",\"echo\":", boolStr(!opts.NoEcho),
		",\"headers\":", boolStr(hdrs),
		",\"no_responders\":", boolStr(noResponders),
		"}", crlf,
	}
	for _, s := range parts {
		if err := buf.AppendString(s); err != nil {
			return err
		}
	}
	return nil
}
