package scanner

import (
	"bytes"
	"testing"

	"github.com/go-jsonstream/jsonstream/ring"
)

func drainAll(t *testing.T, s *Scanner, pred func(rune) bool) {
	t.Helper()
	for {
		c, ok := s.Peek()
		if !ok || c.Source == Exhausted || !pred(c.Ch) {
			return
		}
		s.Advance()
	}
}

func TestBeginEmitFinalBorrowsWholeBatchToken(t *testing.T) {
	var r ring.Ring
	s := New(&r)
	s.SetChunk([]byte(`hello"`), true)
	s.Begin(StringValue, Allowed)
	drainAll(t, s, func(c rune) bool { return c != '"' })
	out := s.EmitFinal()
	if !out.Borrowed() {
		t.Fatal("expected a borrowed fragment for an unescaped in-batch token")
	}
	if out.Text() != "hello" {
		t.Fatalf("got %q, want %q", out.Text(), "hello")
	}
	if s.Anchor() != nil {
		t.Fatal("EmitFinal must clear the anchor")
	}
}

// A lexer consuming an escape's scaffolding bytes (the backslash and
// selector letter) sets RawCaptureSuppressed around those Advance calls so
// they aren't mirrored verbatim; the decoded replacement is pushed by hand.
func TestMarkEscapeDisablesBorrowing(t *testing.T) {
	var r ring.Ring
	s := New(&r)
	s.SetChunk([]byte(`ab\ncd"`), true)
	s.Begin(StringValue, Allowed)
	s.Advance() // 'a'
	s.Advance() // 'b'
	s.MarkEscape()
	if s.Anchor().borrowEligible() {
		t.Fatal("MarkEscape must disable further borrowing")
	}
	s.Anchor().RawCaptureSuppressed = true
	s.Advance() // '\\'
	s.Advance() // 'n'
	s.Anchor().RawCaptureSuppressed = false
	s.PushChar('\n')
	s.Advance() // 'c'
	s.Advance() // 'd'
	out := s.EmitFinal()
	if out.Borrowed() {
		t.Fatal("a token with an escape must never be surfaced as borrowed")
	}
	if out.Text() != "ab\ncd" {
		t.Fatalf("got %q, want %q", out.Text(), "ab\ncd")
	}
}

func TestYieldPrefixReturnsBorrowedPrefixThenOwnsRemainder(t *testing.T) {
	var r ring.Ring
	s := New(&r)
	s.SetChunk([]byte(`ab\ncd"`), true)
	s.Begin(StringValue, Allowed)
	s.Advance()
	s.Advance()
	prefix, ok := s.YieldPrefix()
	if !ok || !prefix.Borrowed() || prefix.Text() != "ab" {
		t.Fatalf("got %+v, ok=%v, want borrowed %q", prefix, ok, "ab")
	}
	s.MarkEscape()
	s.Anchor().RawCaptureSuppressed = true
	s.Advance() // '\\'
	s.Advance() // 'n'
	s.Anchor().RawCaptureSuppressed = false
	s.PushChar('\n')
	s.Advance() // 'c'
	s.Advance() // 'd'
	out := s.EmitFinal()
	if out.Borrowed() {
		t.Fatal("remainder after an escape must be owned")
	}
	if out.Text() != "\ncd" {
		t.Fatalf("got %q, want %q", out.Text(), "\ncd")
	}
}

func TestYieldPrefixDisallowedPolicyAlwaysOwns(t *testing.T) {
	var r ring.Ring
	s := New(&r)
	s.SetChunk([]byte(`ab"`), true)
	s.Begin(Key, Disallowed)
	s.Advance()
	s.Advance()
	_, ok := s.YieldPrefix()
	if ok {
		t.Fatal("YieldPrefix must never borrow for a Disallowed-policy token")
	}
	out := s.EmitFinal()
	if out.Borrowed() {
		t.Fatal("a Disallowed-policy token must never be emitted as borrowed")
	}
	if out.Text() != "ab" {
		t.Fatalf("got %q, want %q", out.Text(), "ab")
	}
}

// Mirrors the real fragmentation sequence for an escaped string value: a
// borrowed prefix yielded right before the escape, an owned fragment for
// the decoded replacement, then an owned final fragment for the tail.
func TestEmitPartialThenEmitFinalConcatenates(t *testing.T) {
	var r ring.Ring
	s := New(&r)
	s.SetChunk([]byte(`ab\ncd"`), true)
	s.Begin(StringValue, Allowed)
	s.Advance() // 'a'
	s.Advance() // 'b'
	prefix, ok := s.YieldPrefix()
	if !ok || !prefix.Borrowed() || prefix.Text() != "ab" {
		t.Fatalf("got %+v, ok=%v", prefix, ok)
	}
	s.MarkEscape()
	s.Anchor().RawCaptureSuppressed = true
	s.Advance() // '\\'
	s.Advance() // 'n'
	s.Anchor().RawCaptureSuppressed = false
	s.PushChar('\n')
	part, ok := s.EmitPartial()
	if !ok || part.Borrowed() || part.Text() != "\n" {
		t.Fatalf("got %+v, ok=%v, want owned %q", part, ok, "\n")
	}
	s.Advance() // 'c'
	s.Advance() // 'd'
	out := s.EmitFinal()
	if out.Borrowed() || out.Text() != "cd" {
		t.Fatalf("got %+v, want owned %q", out, "cd")
	}
}

func TestAbandonToCarryOwnsUnacknowledgedPrefix(t *testing.T) {
	var r ring.Ring
	s := New(&r)
	s.SetChunk([]byte(`abc`), false)
	s.Begin(StringValue, Allowed)
	s.Advance()
	s.Advance()
	s.AbandonToCarry()
	if s.Anchor().borrowEligible() {
		t.Fatal("AbandonToCarry leaves borrowEligible true, but the chunk is about to be discarded")
	}
	// A second AbandonToCarry (idempotent) must not duplicate the owned prefix.
	s.AbandonToCarry()
	out := s.EmitFinal()
	if out.Text() != "ab" {
		t.Fatalf("got %q, want %q (no duplication)", out.Text(), "ab")
	}
}

// Regression: a fragment carried over the ring, then continued and finished
// entirely within the following batch, must still come back as an owned
// (not borrowed) fragment even though the tail half looks borrow-eligible
// in isolation.
func TestFinishCarriesUnreadTailIntoRing(t *testing.T) {
	var r ring.Ring
	s := New(&r)
	s.SetChunk([]byte(`ab`), false)
	s.Begin(Key, Disallowed)
	s.Advance()
	s.Finish()

	s.SetChunk([]byte(`c"`), true)
	s.Advance() // drains the ring-carried "b"
	s.Advance() // consumes "c" from the new chunk
	out := s.EmitFinal()
	if out.Borrowed() {
		t.Fatal("a token split across feeds must never be borrowed")
	}
	if out.Text() != "abc" {
		t.Fatalf("got %q, want %q (first feed's consumed and carried bytes plus the second feed's)", out.Text(), "abc")
	}
}

func TestEnsureRawMigratesAccumulatedText(t *testing.T) {
	var r ring.Ring
	s := New(&r)
	s.SetChunk([]byte(`x`), true)
	s.Begin(StringValue, Allowed)
	s.MarkEscape()
	s.PushChar('x')
	s.EnsureRaw()
	s.PushRaw([]byte{0xED, 0xB0, 0x80})
	out := s.EmitFinal()
	if !out.IsRaw() {
		t.Fatal("expected a raw fragment after EnsureRaw")
	}
	want := append([]byte("x"), 0xED, 0xB0, 0x80)
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("got % X, want % X", out.Bytes(), want)
	}
}

// This is the scanner-level shape of the lone-low-surrogate resumption bug:
// RawCaptureSuppressed must be cleared by the lexer before scanning resumes,
// or plain characters following an escape get silently dropped from
// scratch instead of mirrored in.
func TestRawCaptureSuppressedGatesScratchMirroring(t *testing.T) {
	var r ring.Ring
	s := New(&r)
	s.SetChunk([]byte(`atail"`), true)
	s.Begin(StringValue, Allowed)
	s.MarkEscape() // forces ownership so Advance mirrors into scratch below
	s.Anchor().RawCaptureSuppressed = true
	s.Advance() // 'a' consumed as escape scaffolding: not mirrored
	s.Anchor().RawCaptureSuppressed = false
	drainAll(t, s, func(c rune) bool { return c != '"' }) // "tail" mirrored normally
	out := s.EmitFinal()
	if out.Text() != "tail" {
		t.Fatalf("got %q, want %q", out.Text(), "tail")
	}
}
