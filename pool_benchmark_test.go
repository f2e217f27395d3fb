package gnats

import (
	"testing"
)

func BenchmarkPool_Alloc(b *testing.B) {
	opts := testMemOptions()

	b.Run("small", func(b *testing.B) {
		pool, _ := NewPool(opts, "bench")
		defer pool.Release()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if pool.Alloc(64) == nil {
				b.Fatal("alloc failed")
			}
			if i%100 == 99 {
				pool, _ = pool.Recycle()
			}
		}
	})

	b.Run("large", func(b *testing.B) {
		pool, _ := NewPool(opts, "bench")
		defer pool.Release()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if pool.Alloc(4096) == nil {
				b.Fatal("alloc failed")
			}
			if i%100 == 99 {
				pool, _ = pool.Recycle()
			}
		}
	})
}

func BenchmarkBuf_Append(b *testing.B) {
	pool, _ := NewPool(testMemOptions(), "bench")
	defer pool.Release()
	payload := []byte("0123456789abcdef")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf, err := pool.GetGrowableBuf(16)
		if err != nil {
			b.Fatal(err)
		}
		for j := 0; j < 32; j++ {
			if err := buf.Append(payload); err != nil {
				b.Fatal(err)
			}
		}
		if i%100 == 99 {
			pool, _ = pool.Recycle()
		}
	}
}

func BenchmarkOpParser_PingPong(b *testing.B) {
	pool, _ := NewPool(testMemOptions(), "bench")
	defer pool.Release()
	ps := NewOpParser(pool)
	frame := []byte("PING\r\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		op, _, _, err := ps.ParseOp(frame)
		if err != nil || op != OpPing {
			b.Fatalf("op %v err %v", op, err)
		}
	}
}

func BenchmarkOpParser_Info(b *testing.B) {
	frame := []byte("INFO {\"server_id\":\"abc\",\"version\":\"1.2.3\"," +
		"\"port\":4222,\"max_payload\":1048576,\"proto\":1," +
		"\"connect_urls\":[\"10.0.0.1:4222\",\"10.0.0.2:4222\"]}\r\n")
	pool, _ := NewPool(testMemOptions(), "bench")
	defer pool.Release()
	ps := NewOpParser(pool)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		op, json, _, err := ps.ParseOp(frame)
		if err != nil || op != OpInfo || json == nil {
			b.Fatalf("op %v err %v", op, err)
		}
		pool, err = pool.Recycle()
		if err != nil {
			b.Fatal(err)
		}
		if err := ps.SetPool(pool); err != nil {
			b.Fatal(err)
		}
	}
}
