package lexer

import (
	"testing"

	"github.com/go-jsonstream/jsonstream/ring"
	"github.com/go-jsonstream/jsonstream/scanner"
	"github.com/go-jsonstream/jsonstream/token"
)

// drive feeds chunks one at a time (the final one with endOfInput=true) and
// collects every token the lexer produces, panicking on a lex error so
// tests read as plain assertions.
func drive(t *testing.T, chunks []string, opts Options) []Token {
	t.Helper()
	r := &ring.Ring{}
	sc := scanner.New(r)
	lx := New(sc, opts)
	var toks []Token
	for i, chunk := range chunks {
		final := i == len(chunks)-1
		sc.SetChunk([]byte(chunk), final)
		for {
			tok, ok, err := lx.Next()
			if err != nil {
				t.Fatalf("unexpected lex error: %v", err)
			}
			if !ok {
				break
			}
			if tok.Type == token.EOF {
				sc.Finish()
				return toks
			}
			toks = append(toks, tok)
		}
		sc.Finish()
	}
	return toks
}

func TestStructuralTokens(t *testing.T) {
	toks := drive(t, []string{`[{}, ]`}, Options{})
	want := []token.Type{token.LBracket, token.LBrace, token.RBrace, token.Comma, token.RBracket}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestLiteralsAcrossFeeds(t *testing.T) {
	toks := drive(t, []string{"tr", "ue fal", "se nul", "l"}, Options{})
	want := []token.Type{token.True, token.False, token.Null}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestNumberWholeInOneChunk(t *testing.T) {
	toks := drive(t, []string{`-12.5e+3`}, Options{})
	if len(toks) != 1 || toks[0].Type != token.Number {
		t.Fatalf("got %v", toks)
	}
	if got := toks[0].Buf.Text(); got != "-12.5e+3" {
		t.Errorf("got %q", got)
	}
}

func TestNumberSplitAcrossFeeds(t *testing.T) {
	toks := drive(t, []string{"3.", "14"}, Options{})
	if len(toks) != 1 || toks[0].Type != token.Number {
		t.Fatalf("got %v", toks)
	}
	if got := toks[0].Buf.Text(); got != "3.14" {
		t.Errorf("got %q", got)
	}
}

func TestSimpleStringBorrowed(t *testing.T) {
	toks := drive(t, []string{`"hello"`}, Options{})
	if len(toks) != 1 || toks[0].Type != token.String {
		t.Fatalf("got %v", toks)
	}
	if !toks[0].Buf.Borrowed() {
		t.Errorf("expected borrowed fragment for an escape-free string")
	}
	if got := toks[0].Buf.Text(); got != "hello" {
		t.Errorf("got %q", got)
	}
}

func TestStringWithSimpleEscape(t *testing.T) {
	toks := drive(t, []string{`"a\nb"`}, Options{})
	var got string
	for _, tk := range toks {
		got += tk.Buf.Text()
	}
	if got != "a\nb" {
		t.Errorf("got %q", got)
	}
}

func TestStringSplitAcrossFeeds(t *testing.T) {
	toks := drive(t, []string{`"hel`, `lo"`}, Options{})
	var got string
	for _, tk := range toks {
		got += tk.Buf.Text()
	}
	if got != "hello" {
		t.Errorf("got %q", got)
	}
}

func TestSurrogatePairJoined(t *testing.T) {
	// U+1F600 GRINNING FACE = D83D DE00
	toks := drive(t, []string{"\"\\uD83D\\uDE00\""}, Options{})
	var got string
	for _, tk := range toks {
		got += tk.Buf.Text()
	}
	want := "\U0001F600"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSurrogatePairSplitAcrossFeeds(t *testing.T) {
	toks := drive(t, []string{`"\uD83D`, `\uDE00"`}, Options{})
	var got string
	for _, tk := range toks {
		got += tk.Buf.Text()
	}
	want := "\U0001F600"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoneHighSurrogateStrictIsError(t *testing.T) {
	r := &ring.Ring{}
	sc := scanner.New(r)
	lx := New(sc, Options{DecodeMode: token.StrictUnicode})
	sc.SetChunk([]byte(`"\uD83D"`), true)
	for {
		_, ok, err := lx.Next()
		if err != nil {
			pe, isPE := err.(*token.ParseError)
			if !isPE || pe.Code != token.LoneHighSurrogate {
				t.Fatalf("got error %v, want LoneHighSurrogate", err)
			}
			return
		}
		if !ok {
			t.Fatal("expected a lone high surrogate to error, got needMore")
		}
	}
}

func TestLoneHighSurrogateReplaceInvalid(t *testing.T) {
	toks := drive(t, []string{`"\uD83D"`}, Options{DecodeMode: token.ReplaceInvalid})
	var got string
	for _, tk := range toks {
		got += tk.Buf.Text()
	}
	if got != "�" {
		t.Errorf("got %q", got)
	}
}

func TestLoneLowSurrogateStrictIsError(t *testing.T) {
	r := &ring.Ring{}
	sc := scanner.New(r)
	lx := New(sc, Options{DecodeMode: token.StrictUnicode})
	sc.SetChunk([]byte(`"\uDC00"`), true)
	for {
		_, ok, err := lx.Next()
		if err != nil {
			pe, isPE := err.(*token.ParseError)
			if !isPE || pe.Code != token.LoneLowSurrogate {
				t.Fatalf("got error %v, want LoneLowSurrogate", err)
			}
			return
		}
		if !ok {
			t.Fatal("expected a lone low surrogate to error, got needMore")
		}
	}
}

func TestLoneLowSurrogateReplaceInvalidCompletesString(t *testing.T) {
	toks := drive(t, []string{`"\uDC00"`}, Options{DecodeMode: token.ReplaceInvalid})
	var got string
	for _, tk := range toks {
		got += tk.Buf.Text()
	}
	if got != "�" {
		t.Errorf("got %q", got)
	}
}

func TestLoneLowSurrogatePreservingCompletesString(t *testing.T) {
	toks := drive(t, []string{`"\uDC00"`}, Options{DecodeMode: token.SurrogatePreserving})
	var gotRaw []byte
	for _, tk := range toks {
		if tk.Buf.IsRaw() {
			gotRaw = append(gotRaw, tk.Buf.Bytes()...)
		}
	}
	want := []byte{0xED, 0xB0, 0x80} // WTF-8 for DC00
	if string(gotRaw) != string(want) {
		t.Errorf("got % X, want % X", gotRaw, want)
	}
}

// A lone low surrogate followed by plain text must not corrupt the
// resumption state (regression: decideHex previously left the lexer stuck
// in strUnicodeHex after a non-erroring lone low surrogate).
func TestLoneLowSurrogateThenMoreTextCompletesString(t *testing.T) {
	toks := drive(t, []string{`"\uDC00tail"`}, Options{DecodeMode: token.ReplaceInvalid})
	var got string
	for _, tk := range toks {
		got += tk.Buf.Text()
	}
	if got != "�tail" {
		t.Errorf("got %q", got)
	}
}

func TestKeyStringNeverFragments(t *testing.T) {
	r := &ring.Ring{}
	sc := scanner.New(r)
	lx := New(sc, Options{})
	lx.ExpectKeyNext(AsKey)
	sc.SetChunk([]byte(`"a\nb"`), true)
	var toks []Token
	for {
		tok, ok, err := lx.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		if tok.Type == token.EOF {
			break
		}
		toks = append(toks, tok)
	}
	if len(toks) != 1 {
		t.Fatalf("expected exactly one fragment for a key, got %d", len(toks))
	}
	if toks[0].Buf.Text() != "a\nb" {
		t.Errorf("got %q", toks[0].Buf.Text())
	}
}

func TestMalformedNumberErrors(t *testing.T) {
	r := &ring.Ring{}
	sc := scanner.New(r)
	lx := New(sc, Options{})
	sc.SetChunk([]byte(`-.5`), true)
	_, _, err := lx.Next()
	pe, ok := err.(*token.ParseError)
	if !ok || pe.Code != token.MalformedNumber {
		t.Fatalf("got %v, want MalformedNumber", err)
	}
}
