package ring

import (
	"bytes"
	"testing"
)

func TestPushDrain(t *testing.T) {
	var r Ring
	if !r.IsEmpty() {
		t.Fatal("new ring should be empty")
	}
	r.PushString("hello")
	if r.IsEmpty() {
		t.Fatal("ring should not be empty after push")
	}
	if got := r.FrontContiguous(); !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("FrontContiguous() = %q, want %q", got, "hello")
	}
	r.Drain(2)
	if got := r.FrontContiguous(); !bytes.Equal(got, []byte("llo")) {
		t.Fatalf("FrontContiguous() after drain = %q, want %q", got, "llo")
	}
	r.Drain(3)
	if !r.IsEmpty() {
		t.Fatal("ring should be empty after draining everything")
	}
}

func TestWraparound(t *testing.T) {
	var r Ring
	r.PushString("0123456789012345678901234567890123456789012345678901234567890123")
	r.Drain(60)
	r.PushString("abcdef")
	want := "0123abcdef"
	var got []byte
	got = r.AppendTo(got)
	if !bytes.Equal(got, []byte(want)) {
		t.Fatalf("AppendTo() = %q, want %q", got, want)
	}
}

func TestGrowthPreservesOrder(t *testing.T) {
	var r Ring
	var want []byte
	for i := 0; i < 200; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i%26)}, 7)
		r.PushBytes(chunk)
		want = append(want, chunk...)
		if i%3 == 0 && r.Len() > 10 {
			n := 5
			want = want[n:]
			r.Drain(n)
		}
	}
	var got []byte
	got = r.AppendTo(got)
	if !bytes.Equal(got, want) {
		t.Fatalf("content mismatch after interleaved push/drain, len(got)=%d len(want)=%d", len(got), len(want))
	}
}

func TestDrainPastLenPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic draining past length")
		}
	}()
	var r Ring
	r.PushString("ab")
	r.Drain(3)
}
