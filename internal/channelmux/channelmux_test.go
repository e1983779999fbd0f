package channelmux

import "testing"

type recorder struct {
	chunks [][]byte
	ends   int
	ok     bool
}

func (r *recorder) OnChunk(payload []byte) {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	r.chunks = append(r.chunks, cp)
}

func (r *recorder) OnEnd(ok bool) {
	r.ends++
	r.ok = ok
}

func TestChannelLifecycleEnd(t *testing.T) {
	tbl := New()
	rec := &recorder{}
	id := tbl.Register("get_playlist", rec)

	tbl.OnFrame(id, []byte("header"))
	tbl.OnFrame(id, []byte("chunk1"))
	tbl.OnFrame(id, []byte("chunk2"))
	tbl.OnFrame(id, nil) // end of stream

	if len(rec.chunks) != 2 {
		t.Fatalf("want 2 data chunks, got %d", len(rec.chunks))
	}
	if rec.ends != 1 || !rec.ok {
		t.Fatal("want OnEnd(true) exactly once")
	}
	if tbl.Len() != 0 {
		t.Fatal("channel should be unregistered after END")
	}
}

func TestFrameOnUnknownChannelIsDropped(t *testing.T) {
	tbl := New()
	// Must not panic.
	tbl.OnFrame(999, []byte("late frame"))
}

// TestFailAndUnregisterAll checks scenario S6: teardown invokes every
// channel's callback with ERROR exactly once.
func TestFailAndUnregisterAll(t *testing.T) {
	tbl := New()
	recs := make([]*recorder, 3)
	for i := range recs {
		recs[i] = &recorder{}
		tbl.Register("chan", recs[i])
	}

	tbl.FailAndUnregisterAll()

	for i, r := range recs {
		if r.ends != 1 || r.ok {
			t.Fatalf("channel %d: want OnEnd(false) exactly once", i)
		}
	}
	if tbl.Len() != 0 {
		t.Fatal("all channels should be unregistered after teardown")
	}
}

func TestChannelIDsAreUnique(t *testing.T) {
	tbl := New()
	seen := map[uint16]bool{}
	for i := 0; i < 5; i++ {
		id := tbl.Register("x", &recorder{})
		if seen[id] {
			t.Fatalf("duplicate channel id %d", id)
		}
		seen[id] = true
	}
}
