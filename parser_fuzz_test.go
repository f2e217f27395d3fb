package gnats

import (
	"bytes"
	"testing"
)

func FuzzOpParser(f *testing.F) {
	// Valid frames
	f.Add([]byte("PING\r\n"))
	f.Add([]byte("PONG\r\n"))
	f.Add([]byte("INFO {\"server_id\":\"abc\",\"port\":4222}\r\n"))
	f.Add([]byte("info {\"a\":[1,2,3]}\r\n"))

	// Malformed frames
	f.Add([]byte("PING\n\n"))
	f.Add([]byte("INFO\r\n"))
	f.Add([]byte("INFO {\"a\":}\r\n"))
	f.Add([]byte("INVALID"))
	f.Add([]byte("\r\n"))
	f.Add([]byte("P"))

	f.Fuzz(func(t *testing.T, data []byte) {
		pool, err := NewPool(testMemOptions(), "fuzz")
		if err != nil {
			t.Fatal(err)
		}
		defer pool.Release()

		// Must terminate without panicking, and never over-consume.
		ps := NewOpParser(pool)
		rest := data
		for len(rest) > 0 {
			op, json, n, err := ps.ParseOp(rest)
			if n < 0 || n > len(rest) {
				t.Fatalf("consumed %d of %d bytes", n, len(rest))
			}
			if err != nil {
				return
			}
			if op == OpNone {
				if n != len(rest) {
					t.Fatalf("incomplete op left %d bytes unconsumed", len(rest)-n)
				}
				return
			}
			if op == OpInfo && json == nil {
				t.Fatal("completed INFO without a document")
			}
			rest = rest[n:]
		}
	})
}

func FuzzOpParser_SplitResume(f *testing.F) {
	f.Add([]byte("INFO {\"server_id\":\"abc\",\"port\":4222}\r\n"), 10)
	f.Add([]byte("PING\r\nPONG\r\n"), 3)
	f.Add([]byte("INFO {\"urls\":[\"a\",\"b\"],\"n\":-1.5e3}\r\n"), 20)

	f.Fuzz(func(t *testing.T, data []byte, split int) {
		if split < 0 || split > len(data) {
			return
		}
		pool, err := NewPool(testMemOptions(), "fuzz")
		if err != nil {
			t.Fatal(err)
		}
		defer pool.Release()

		// Whole-input parse is the reference.
		whole := NewOpParser(pool)
		wholeOp, _, wholeN, wholeErr := whole.ParseOp(data)

		chunked := NewOpParser(pool)
		op, _, n1, err := chunked.ParseOp(data[:split])
		if err != nil {
			if wholeErr == nil {
				t.Fatalf("split parse failed where whole parse succeeded: %v", err)
			}
			return
		}
		total := n1
		if op == OpNone {
			op, _, n1, err = chunked.ParseOp(data[split:])
			total += n1
			if (err != nil) != (wholeErr != nil) {
				t.Fatalf("split/whole error mismatch: %v vs %v", err, wholeErr)
			}
			if err != nil {
				return
			}
		}
		if op != wholeOp {
			t.Fatalf("split parse yielded %v, whole parse %v", op, wholeOp)
		}
		if op != OpNone && total != wholeN {
			t.Fatalf("split parse consumed %d, whole parse %d", total, wholeN)
		}
	})
}

func FuzzJSONParser(f *testing.F) {
	f.Add([]byte(`{"a":1}`))
	f.Add([]byte(`{"s":"A\n","arr":[1,2],"o":{"b":true}}`))
	f.Add([]byte(`{"n":-1.5e-3,"null":null}`))
	f.Add([]byte(`{"bad":[1,"x"]}`))
	f.Add([]byte(`{`))
	f.Add([]byte(`]`))
	f.Add(bytes.Repeat([]byte(`{"a":`), 50))

	f.Fuzz(func(t *testing.T, data []byte) {
		pool, err := NewPool(testMemOptions(), "fuzz")
		if err != nil {
			t.Fatal(err)
		}
		defer pool.Release()

		p, err := NewJSONParser(pool)
		if err != nil {
			t.Fatal(err)
		}
		doc, n, err := p.Parse(data)
		if n < 0 || n > len(data) {
			t.Fatalf("consumed %d of %d bytes", n, len(data))
		}
		if err == nil && doc == nil && n != len(data) {
			t.Fatal("incomplete document did not consume all input")
		}
	})
}
