// Package scanner implements a dual-source character scanner: a per-feed
// controller that drains the carry-over ring before consuming the current
// chunk, tracks byte/char cursors and (line, column), owns the single
// token-scratch buffer, and enforces the borrow/own capture discipline for
// in-flight tokens.
//
// The character-cursor bookkeeping (pos/line/column, Next/Backup-style
// advance-and-undo) follows a State.Next/Backup design for advancing and
// undoing a rune read; the per-token raw-slice capture follows a Token
// type that records where in the source a lexeme began, generalized here
// to support borrowing a slice of the caller's chunk instead of always
// copying.
package scanner

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"

	"github.com/go-jsonstream/jsonstream/ring"
	"github.com/go-jsonstream/jsonstream/token"
)

// Source identifies where the character the Scanner is currently positioned
// on came from.
type Source int

const (
	Exhausted Source = iota
	Ring
	Batch
)

func (s Source) String() string {
	switch s {
	case Ring:
		return "Ring"
	case Batch:
		return "Batch"
	default:
		return "Exhausted"
	}
}

// Kind identifies the sort of token currently being captured.
type Kind int

const (
	Key Kind = iota
	StringValue
	Number
)

// FragmentPolicy says whether a token may be surfaced as more than one
// fragment (string values) or must be emitted in one shot (keys, numbers).
type FragmentPolicy int

const (
	Allowed FragmentPolicy = iota
	Disallowed
)

// Char is one decoded scalar together with its provenance, the return value
// of Peek and Advance.
type Char struct {
	Ch     rune
	Len    int // UTF-8 encoded length in bytes
	Source Source
}

// asciiWhitespace matches the default JSON whitespace set.
func asciiWhitespace(r rune) bool {
	switch r {
	case 0x20, 0x09, 0x0A, 0x0D:
		return true
	default:
		return false
	}
}

// unicodeWhitespace matches any scalar for which the Unicode White_Space
// property holds, built with x/text/runes over the stdlib property table
// rather than hand-rolling a second predicate next to asciiWhitespace.
var unicodeWhitespace = runes.In(unicode.White_Space).Contains

// TokenBuf is the result of EmitPartial/EmitFinal: either a slice borrowed
// from the caller's chunk (zero-copy) or content owned by the Scanner's
// scratch buffer.
type TokenBuf struct {
	borrowed bool
	raw      bool
	bytes    []byte
	text     string
}

// Borrowed reports whether this fragment is a zero-copy slice of the chunk
// passed to the current feed. A borrowed fragment must not be retained past
// the lifetime of that chunk.
func (t TokenBuf) Borrowed() bool { return t.borrowed }

// IsRaw reports whether the fragment is raw (possibly WTF-8) bytes rather
// than guaranteed-valid UTF-8 text.
func (t TokenBuf) IsRaw() bool { return t.raw }

// Text returns the fragment's content as a string. Valid for non-raw
// fragments (borrowed or owned text).
func (t TokenBuf) Text() string {
	if t.borrowed || !t.raw {
		if t.text != "" || t.bytes == nil {
			return t.text
		}
		return string(t.bytes)
	}
	return string(t.bytes)
}

// Bytes returns the fragment's content as raw bytes. Valid for raw
// fragments.
func (t TokenBuf) Bytes() []byte {
	if t.bytes != nil {
		return t.bytes
	}
	return []byte(t.text)
}

// Empty reports whether the fragment carries no content.
func (t TokenBuf) Empty() bool {
	return len(t.bytes) == 0 && t.text == ""
}

// scratch is the single mutable tagged-union buffer backing a captured
// token: exactly one of Text/Raw is the active variant. ensureRaw is a
// one-way migration that preserves already-accumulated bytes.
type scratch struct {
	isRaw bool
	text  []byte // accumulated UTF-8 text, used while !isRaw
	raw   []byte // accumulated raw (WTF-8) bytes, used while isRaw
}

func (s *scratch) reset() {
	s.isRaw = false
	s.text = s.text[:0]
	s.raw = s.raw[:0]
}

func (s *scratch) ensureRaw() {
	if s.isRaw {
		return
	}
	s.raw = append(s.raw[:0], s.text...)
	s.isRaw = true
}

func (s *scratch) pushText(str string) {
	if s.isRaw {
		s.raw = append(s.raw, str...)
		return
	}
	s.text = append(s.text, str...)
}

func (s *scratch) pushChar(r rune) {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	s.pushText(string(buf[:n]))
}

func (s *scratch) pushRaw(b []byte) {
	s.ensureRaw()
	s.raw = append(s.raw, b...)
}

func (s *scratch) len() int {
	if s.isRaw {
		return len(s.raw)
	}
	return len(s.text)
}

// Anchor describes the in-flight token, present iff a token is currently
// being captured.
type Anchor struct {
	Kind               Kind
	FragmentPolicy     FragmentPolicy
	SourceAtStart      Source // Ring or Batch
	StartByteInBatch   int    // meaningful iff started in Batch
	HasStartByte       bool
	HadEscape          bool
	IsRaw              bool
	PrefixAcknowledged bool

	// RawCaptureSuppressed is set by the lexer while it is consuming
	// scaffolding characters of an escape sequence (the backslash, the
	// selector letter, hex digits, a pair's second "\u") that it will
	// represent in scratch itself via PushChar/PushRaw with a decoded
	// value different from the raw bytes consumed. While true, Advance and
	// the Copy*While helpers do not also mirror those raw bytes into
	// scratch.
	RawCaptureSuppressed bool
}

// borrowEligible reports whether the in-flight token may still be surfaced
// as a zero-copy slice of the current chunk.
func (a *Anchor) borrowEligible() bool {
	return a.SourceAtStart == Batch && !a.HadEscape && !a.IsRaw && a.HasStartByte
}

// Scanner is the dual-source character cursor plus the single token scratch
// buffer and anchor for one Parser. A Scanner is created once per Parser and
// reused across feeds via SetChunk.
type Scanner struct {
	ring *ring.Ring

	chunk         []byte
	bytesConsumed int // within chunk
	charsConsumed int // within chunk

	pos, line, col int // global character position (1-based line/col)

	endOfInput bool

	scratch scratch
	anchor  *Anchor

	// staging is a small scratch buffer used to decode a rune that straddles
	// the ring/chunk boundary or the ring's own wraparound point: the <=4
	// straddling bytes are copied here so utf8.DecodeRune sees a contiguous
	// sequence.
	staging [utf8.UTFMax]byte
}

// New creates a Scanner backed by the given ring (owned by the Parser across
// the Scanner's lifetime).
func New(r *ring.Ring) *Scanner {
	return &Scanner{ring: r, line: 1, col: 1}
}

// SetChunk begins a new feed. The Scanner will drain the ring before
// consuming chunk.
func (s *Scanner) SetChunk(chunk []byte, endOfInput bool) {
	s.chunk = chunk
	s.bytesConsumed = 0
	s.charsConsumed = 0
	s.endOfInput = endOfInput
}

// Pos returns the current global position.
func (s *Scanner) Pos() token.Pos {
	return token.Pos{Offset: s.pos, Line: s.line, Column: s.col}
}

// EndOfInput reports whether this feed is the closed-stream (finish) feed.
func (s *Scanner) EndOfInput() bool {
	return s.endOfInput
}

// CurrentSource reports where the next character would come from without
// consuming anything.
func (s *Scanner) CurrentSource() Source {
	if !s.ring.IsEmpty() {
		return Ring
	}
	if s.bytesConsumed < len(s.chunk) {
		return Batch
	}
	return Exhausted
}

// decode attempts to decode one rune starting at the current cursor without
// consuming anything. It returns ok=false if there are not enough bytes
// available yet to know (i.e. need more input), which can only happen at the
// tail of the batch when not at end-of-input.
func (s *Scanner) decode() (ch rune, ln int, src Source, ok bool) {
	ringLen := s.ring.Len()
	if ringLen > 0 {
		head := s.ring.FrontContiguous()
		if utf8.FullRune(head) {
			r, w := utf8.DecodeRune(head)
			return r, w, Ring, true
		}
		// Ring content is fragmented by wraparound and/or too short: stage
		// up to UTFMax bytes, pulling from the chunk if the ring alone
		// can't complete the rune and more input is available.
		n := s.ring.CopyFront(s.staging[:])
		if !utf8.FullRune(s.staging[:n]) && n < utf8.UTFMax {
			need := utf8.UTFMax - n
			if avail := len(s.chunk) - s.bytesConsumed; need > avail {
				need = avail
			}
			n += copy(s.staging[n:n+need], s.chunk[s.bytesConsumed:s.bytesConsumed+need])
		}
		if !utf8.FullRune(s.staging[:n]) && s.moreInputPossible() {
			// the rune straddles ring/chunk (or ring wraparound) and we
			// don't yet have enough bytes to know its width; caller must
			// feed more before we can decode past this point.
			return 0, 0, Ring, false
		}
		// Either complete, or truncated at the true end of input (in which
		// case utf8.DecodeRune reports RuneError with width 1, same as any
		// other malformed byte at EOF).
		r, w := utf8.DecodeRune(s.staging[:n])
		return r, w, Ring, true
	}
	if s.bytesConsumed < len(s.chunk) {
		b := s.chunk[s.bytesConsumed:]
		if utf8.FullRune(b) {
			r, w := utf8.DecodeRune(b)
			return r, w, Batch, true
		}
		if !s.moreInputPossible() {
			r, w := utf8.DecodeRune(b)
			return r, w, Batch, true
		}
		return 0, 0, Batch, false
	}
	if !s.moreInputPossible() {
		return 0, 0, Exhausted, true
	}
	return 0, 0, Exhausted, false
}

// moreInputPossible reports whether a future feed could still extend the
// current chunk's tail (i.e. this isn't the closed-stream feed).
func (s *Scanner) moreInputPossible() bool {
	return !s.endOfInput
}

// Peek returns the next scalar without consuming it. ok is false only when
// more bytes are needed and this is not the end-of-input feed.
func (s *Scanner) Peek() (Char, bool) {
	r, w, src, ok := s.decode()
	if !ok {
		return Char{}, false
	}
	if src == Exhausted {
		return Char{Ch: utf8.RuneError, Len: 0, Source: Exhausted}, true
	}
	return Char{Ch: r, Len: w, Source: src}, true
}

// Advance consumes and returns the next scalar, updating pos/line/column and
// the per-source consumption counters.
func (s *Scanner) Advance() (Char, bool) {
	r, w, src, ok := s.decode()
	if !ok {
		return Char{}, false
	}
	switch src {
	case Ring:
		drain := w
		if drain > s.ring.Len() {
			// part of the rune spilled into the batch
			spill := drain - s.ring.Len()
			s.ring.Drain(s.ring.Len())
			s.bytesConsumed += spill
			s.charsConsumed++
		} else {
			s.ring.Drain(drain)
		}
	case Batch:
		s.bytesConsumed += w
		s.charsConsumed++
	case Exhausted:
		return Char{Ch: utf8.RuneError, Len: 0, Source: Exhausted}, true
	}
	// A character consumed while no longer (or never) borrow-eligible would
	// otherwise vanish: it isn't part of any chunk slice EmitFinal/EmitPartial
	// will see, and nothing else mirrors it into scratch. This does not fire
	// while the lexer is working through escape scaffolding (it pushes the
	// decoded replacement itself).
	if s.anchor != nil && !s.anchor.RawCaptureSuppressed && !s.anchor.borrowEligible() {
		s.scratch.pushChar(r)
	}
	s.pos++
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return Char{Ch: r, Len: w, Source: src}, true
}

// CopyASCIIWhile is the fast path for runs of ASCII bytes: it consumes
// from the Batch only, only bytes satisfying pred, mirroring them into
// scratch when the in-flight token isn't borrow-eligible. It stops as soon
// as the ring is non-empty (shouldn't happen mid-call) or the batch is
// exhausted or a non-matching/non-ASCII byte is seen.
func (s *Scanner) CopyASCIIWhile(pred func(byte) bool) int {
	if !s.ring.IsEmpty() {
		return 0
	}
	start := s.bytesConsumed
	n := 0
	for s.bytesConsumed+n < len(s.chunk) {
		b := s.chunk[s.bytesConsumed+n]
		if b >= utf8.RuneSelf || !pred(b) {
			break
		}
		n++
	}
	if n == 0 {
		return 0
	}
	if s.anchor != nil && !s.anchor.RawCaptureSuppressed && !s.anchor.borrowEligible() {
		s.scratch.pushText(string(s.chunk[start : start+n]))
	}
	s.bytesConsumed += n
	s.charsConsumed += n
	s.pos += n
	s.col += n
	return n
}

// CopyCharWhile is the general fast path: it consumes scalars (from
// whichever single source is currently active) while pred holds, stopping
// when the active source would change so callers can reevaluate
// borrowability.
func (s *Scanner) CopyCharWhile(pred func(rune) bool) int {
	startSrc := s.CurrentSource()
	if startSrc == Exhausted {
		return 0
	}
	n := 0
	for {
		cur := s.CurrentSource()
		if cur != startSrc {
			break
		}
		c, ok := s.Peek()
		if !ok || c.Source == Exhausted || !pred(c.Ch) {
			break
		}
		s.Advance()
		n++
	}
	return n
}

// Begin starts capturing a new token. The caller must not already have a
// token in flight.
func (s *Scanner) Begin(kind Kind, policy FragmentPolicy) {
	s.scratch.reset()
	a := &Anchor{Kind: kind, FragmentPolicy: policy}
	if s.CurrentSource() == Batch {
		a.SourceAtStart = Batch
		a.StartByteInBatch = s.bytesConsumed
		a.HasStartByte = true
	} else {
		a.SourceAtStart = Ring
	}
	s.anchor = a
}

// Anchor returns the in-flight anchor, or nil if no token is being captured.
func (s *Scanner) Anchor() *Anchor {
	return s.anchor
}

// ownPrefix copies any unacknowledged in-batch prefix into the text scratch
// and disables further borrowing for this token. Idempotent.
func (s *Scanner) ownPrefix() {
	a := s.anchor
	if a == nil || a.PrefixAcknowledged {
		return
	}
	if a.SourceAtStart == Batch && a.HasStartByte && s.bytesConsumed > a.StartByteInBatch {
		s.scratch.pushText(string(s.chunk[a.StartByteInBatch:s.bytesConsumed]))
	}
	a.HasStartByte = false
}

// MarkEscape records that the in-flight token contains an escape sequence,
// which permanently disables borrowing for it. Any borrowable prefix must
// be accounted for (copied via ownPrefix, or yielded to the caller first
// via YieldPrefix) before this call's effects apply to later emissions.
func (s *Scanner) MarkEscape() {
	a := s.anchor
	if a == nil {
		return
	}
	if !a.HadEscape && a.borrowEligible() {
		s.ownPrefix()
	}
	a.HadEscape = true
}

// YieldPrefix returns a borrowed slice of any not-yet-acknowledged in-batch
// prefix for Allowed-policy tokens, or copies it into scratch and returns
// false. For Disallowed-policy tokens it always copies and returns false.
func (s *Scanner) YieldPrefix() (TokenBuf, bool) {
	a := s.anchor
	if a == nil {
		return TokenBuf{}, false
	}
	if a.FragmentPolicy != Allowed {
		s.ownPrefix()
		return TokenBuf{}, false
	}
	if a.borrowEligible() && s.bytesConsumed > a.StartByteInBatch {
		b := s.chunk[a.StartByteInBatch:s.bytesConsumed]
		a.PrefixAcknowledged = true
		a.StartByteInBatch = s.bytesConsumed
		return TokenBuf{borrowed: true, bytes: b}, true
	}
	s.ownPrefix()
	return TokenBuf{}, false
}

// EnsureRaw migrates the scratch buffer from Text to Raw, disabling
// borrowing for the remainder of this token.
func (s *Scanner) EnsureRaw() {
	s.scratch.ensureRaw()
	if s.anchor != nil {
		s.anchor.IsRaw = true
	}
}

// PushText appends decoded UTF-8 text to scratch.
func (s *Scanner) PushText(str string) { s.scratch.pushText(str) }

// PushChar appends a single decoded scalar to scratch.
func (s *Scanner) PushChar(r rune) { s.scratch.pushChar(r) }

// PushRaw appends raw bytes to scratch, migrating to Raw mode first.
func (s *Scanner) PushRaw(b []byte) { s.scratch.pushRaw(b) }

// EmitPartial returns a mid-stream fragment for Allowed-policy tokens, or
// (zero, false) if there is nothing to emit yet.
func (s *Scanner) EmitPartial() (TokenBuf, bool) {
	a := s.anchor
	if a == nil || a.FragmentPolicy != Allowed {
		return TokenBuf{}, false
	}
	if a.borrowEligible() && s.bytesConsumed > a.StartByteInBatch {
		b := s.chunk[a.StartByteInBatch:s.bytesConsumed]
		a.PrefixAcknowledged = true
		a.StartByteInBatch = s.bytesConsumed
		return TokenBuf{borrowed: true, bytes: b}, true
	}
	if s.scratch.len() > 0 {
		out := s.takeScratch()
		s.scratch.text = s.scratch.text[:0]
		s.scratch.raw = s.scratch.raw[:0]
		return out, true
	}
	return TokenBuf{}, false
}

// EmitFinal returns the final fragment for the in-flight token and clears
// the anchor. The fragment is borrowed if the token is still borrow
// eligible and the prefix was not already acknowledged; otherwise it is
// owned from scratch (possibly empty, e.g. an empty string literal).
func (s *Scanner) EmitFinal() TokenBuf {
	a := s.anchor
	if a == nil {
		return TokenBuf{}
	}
	var out TokenBuf
	if a.borrowEligible() && !a.PrefixAcknowledged {
		if s.bytesConsumed >= a.StartByteInBatch {
			out = TokenBuf{borrowed: true, bytes: s.chunk[a.StartByteInBatch:s.bytesConsumed]}
		}
	} else if a.borrowEligible() && a.PrefixAcknowledged && s.scratch.len() == 0 && s.bytesConsumed == a.StartByteInBatch {
		// prefix already yielded, nothing left to add: final fragment is empty.
		out = TokenBuf{}
	} else {
		if a.PrefixAcknowledged && s.bytesConsumed > a.StartByteInBatch {
			s.ownPrefix()
		}
		out = s.takeScratch()
	}
	s.anchor = nil
	return out
}

func (s *Scanner) takeScratch() TokenBuf {
	if s.scratch.isRaw {
		b := append([]byte(nil), s.scratch.raw...)
		return TokenBuf{raw: true, bytes: b}
	}
	return TokenBuf{text: string(s.scratch.text)}
}

// AbandonToCarry is called on early iterator drop: if a token is in flight
// and still borrow-eligible with a non-empty in-batch prefix, it is copied
// into scratch so the next feed can resume from owned state.
func (s *Scanner) AbandonToCarry() {
	if s.anchor == nil {
		return
	}
	s.ownPrefix()
}

// Finish appends the unread batch tail to the ring. It must be called
// exactly once per feed, after the parser is done driving this Scanner for
// that feed. Any token still in flight has its borrowed prefix copied into
// scratch first: a borrow is only valid for the lifetime of the chunk
// passed to this feed, and that chunk is about to go out of scope.
func (s *Scanner) Finish() {
	if s.anchor != nil {
		s.ownPrefix()
	}
	if s.bytesConsumed < len(s.chunk) {
		s.ring.PushBytes(s.chunk[s.bytesConsumed:])
	}
	s.chunk = nil
	s.bytesConsumed = 0
	s.charsConsumed = 0
}

// IsUnicodeWhitespace reports whether r has the Unicode White_Space
// property, used when the lexer's AllowUnicodeWhitespace option is set.
func IsUnicodeWhitespace(r rune) bool { return unicodeWhitespace(r) }

// IsASCIIWhitespace reports whether r is one of the four default
// whitespace characters.
func IsASCIIWhitespace(r rune) bool { return asciiWhitespace(r) }
