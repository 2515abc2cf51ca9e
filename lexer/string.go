// Copyright 2026 The jsonstream Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package lexer

import (
	"github.com/go-jsonstream/jsonstream/scanner"
	"github.com/go-jsonstream/jsonstream/token"
)

// strPhase is the resumption point within a string lexeme.
type strPhase int

const (
	strBody strPhase = iota
	strEscape        // just consumed '\', expect the escape selector
	strUnicodeHex     // accumulating hex digits for \uXXXX
	strPairBackslash // high surrogate seen, expect a literal '\' to continue the pair
	strPairU         // expect 'u'/'U' to continue the pair
)

type strState struct {
	phase      strPhase
	startPos   token.Pos
	emittedAny bool

	hexCount int
	hexVal   uint32

	pendingHigh    uint32
	completingPair bool
}

func isPlainStringChar(r rune) bool {
	return r != '"' && r != '\\' && r >= 0x20
}

func isHighSurrogate(v uint32) bool { return v >= 0xD800 && v <= 0xDBFF }
func isLowSurrogate(v uint32) bool  { return v >= 0xDC00 && v <= 0xDFFF }

// toBody returns to plain-content scanning, re-enabling raw-byte capture of
// subsequently consumed characters that aren't part of further escapes.
func (l *Lexer) toBody() {
	l.str.phase = strBody
	if a := l.sc.Anchor(); a != nil {
		a.RawCaptureSuppressed = false
	}
}

// stepString resumes string lexing, possibly returning an intermediate
// fragment (done=false) before the string's closing quote is reached.
func (l *Lexer) stepString() (tok Token, done bool, err error, needMore bool) {
	sc := l.sc
	for {
		switch l.str.phase {
		case strBody:
			sc.CopyCharWhile(isPlainStringChar)
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			switch {
			case c.Source == scanner.Exhausted:
				return Token{}, false, &token.ParseError{
					Code: token.UnterminatedString, Pos: sc.Pos(),
				}, false
			case c.Ch == '"':
				buf := sc.EmitFinal()
				sc.Advance()
				return Token{
					Type: token.String, Pos: l.str.startPos, Buf: buf,
					IsInitial: !l.str.emittedAny, IsFinal: true,
				}, true, nil, false
			case c.Ch == '\\':
				// Order matters: MarkEscape's internal ownPrefix call must
				// run before the backslash itself is consumed, or the
				// backslash byte would be captured as if it were content.
				prefix, hadPrefix := sc.YieldPrefix()
				sc.MarkEscape()
				sc.Anchor().RawCaptureSuppressed = true
				sc.Advance()
				l.str.phase = strEscape
				if hadPrefix {
					initial := !l.str.emittedAny
					l.str.emittedAny = true
					return Token{
						Type: token.String, Pos: l.str.startPos, Buf: prefix,
						IsInitial: initial, IsFinal: false,
					}, false, nil, false
				}
			default:
				return Token{}, false, &token.ParseError{
					Code: token.UnexpectedChar, Pos: sc.Pos(), Found: c.Ch,
				}, false
			}
		case strEscape:
			e, more := l.afterBackslash()
			if more {
				return Token{}, false, nil, true
			}
			if e != nil {
				return Token{}, false, e, false
			}
		case strUnicodeHex:
			e, more := l.stepHexDigit()
			if more {
				return Token{}, false, nil, true
			}
			if e != nil {
				return Token{}, false, e, false
			}
		case strPairBackslash:
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Ch == '\\' {
				sc.Advance()
				l.str.phase = strPairU
				continue
			}
			if e := l.handleLoneHigh(); e != nil {
				return Token{}, false, e, false
			}
			l.toBody()
		case strPairU:
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Ch == 'u' || (l.opts.AllowUppercaseU && c.Ch == 'U') {
				sc.Advance()
				l.str.hexCount, l.str.hexVal = 0, 0
				l.str.phase = strUnicodeHex
				continue
			}
			if e := l.handleLoneHigh(); e != nil {
				return Token{}, false, e, false
			}
			l.str.completingPair = false
			// the backslash already consumed in strPairBackslash starts a
			// fresh escape of its own; dispatch on the character we just
			// peeked (not yet consumed) as its selector.
			e, more := l.afterBackslash()
			if more {
				return Token{}, false, nil, true
			}
			if e != nil {
				return Token{}, false, e, false
			}
		}

		// A decoded escape right before the closing quote stays in scratch
		// for EmitFinal, so it is not split off into a separate fragment.
		if c, ok := sc.Peek(); ok && c.Ch == '"' && l.str.phase == strBody {
			continue
		}
		if emit, ok2 := sc.EmitPartial(); ok2 {
			initial := !l.str.emittedAny
			l.str.emittedAny = true
			return Token{
				Type: token.String, Pos: l.str.startPos, Buf: emit,
				IsInitial: initial, IsFinal: false,
			}, false, nil, false
		}
	}
}

// afterBackslash dispatches on the character immediately following a '\'
// that starts a new escape sequence. Shared between the ordinary escape
// path and the reversed-surrogate-pair recovery path, which both need to
// interpret "the char right after a backslash" the same way.
func (l *Lexer) afterBackslash() (err error, needMore bool) {
	sc := l.sc
	c, ok := sc.Peek()
	if !ok {
		return nil, true
	}
	switch c.Ch {
	case '"':
		sc.Advance()
		sc.PushChar('"')
		l.toBody()
	case '\\':
		sc.Advance()
		sc.PushChar('\\')
		l.toBody()
	case '/':
		sc.Advance()
		sc.PushChar('/')
		l.toBody()
	case 'b':
		sc.Advance()
		sc.PushChar('\b')
		l.toBody()
	case 'f':
		sc.Advance()
		sc.PushChar('\f')
		l.toBody()
	case 'n':
		sc.Advance()
		sc.PushChar('\n')
		l.toBody()
	case 'r':
		sc.Advance()
		sc.PushChar('\r')
		l.toBody()
	case 't':
		sc.Advance()
		sc.PushChar('\t')
		l.toBody()
	case 'u':
		sc.Advance()
		l.str.hexCount, l.str.hexVal, l.str.completingPair = 0, 0, false
		l.str.phase = strUnicodeHex
	case 'U':
		if !l.opts.AllowUppercaseU {
			return &token.ParseError{Code: token.InvalidEscape, Pos: sc.Pos(), Found: c.Ch}, false
		}
		sc.Advance()
		l.str.hexCount, l.str.hexVal, l.str.completingPair = 0, 0, false
		l.str.phase = strUnicodeHex
	default:
		return &token.ParseError{Code: token.InvalidEscape, Pos: sc.Pos(), Found: c.Ch}, false
	}
	return nil, false
}

func hexDigitVal(r rune) (uint32, bool) {
	switch {
	case r >= '0' && r <= '9':
		return uint32(r - '0'), true
	case r >= 'a' && r <= 'f':
		return uint32(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return uint32(r-'A') + 10, true
	default:
		return 0, false
	}
}

// stepHexDigit consumes one hex digit of a \uXXXX escape, finishing the
// accumulation (and dispatching on the resulting code unit) once 4 digits
// have been read, or fewer if AllowShortHex permits stopping early.
func (l *Lexer) stepHexDigit() (err error, needMore bool) {
	sc := l.sc
	c, ok := sc.Peek()
	if !ok {
		return nil, true
	}
	v, isHex := hexDigitVal(c.Ch)
	if isHex {
		sc.Advance()
		l.str.hexVal = l.str.hexVal<<4 | v
		l.str.hexCount++
		if l.str.hexCount == 4 {
			return l.finishHex(), false
		}
		return nil, false
	}
	if l.str.hexCount > 0 && l.opts.AllowShortHex {
		return l.finishHex(), false
	}
	return &token.ParseError{Code: token.InvalidUnicodeEscape, Pos: sc.Pos(), Found: c.Ch}, false
}

func (l *Lexer) finishHex() error {
	code := l.str.hexVal
	if l.str.completingPair {
		if isLowSurrogate(code) {
			full := rune(0x10000 + ((l.str.pendingHigh - 0xD800) << 10) + (code - 0xDC00))
			l.sc.PushChar(full)
			l.str.pendingHigh = 0
			l.str.completingPair = false
			l.toBody()
			return nil
		}
		// reversed pair: the high surrogate stands alone, and this hex
		// value gets dispatched fresh as if no pair had been attempted.
		if err := l.handleLoneHigh(); err != nil {
			return err
		}
		l.str.completingPair = false
		return l.decideHex(code)
	}
	return l.decideHex(code)
}

// decideHex dispatches a freshly accumulated \uXXXX code unit: start of a
// surrogate pair, a lone low surrogate, or an ordinary code point.
func (l *Lexer) decideHex(code uint32) error {
	switch {
	case isHighSurrogate(code):
		l.str.pendingHigh = code
		l.str.completingPair = true
		l.str.phase = strPairBackslash
		return nil
	case isLowSurrogate(code):
		if err := l.handleLoneLow(code); err != nil {
			return err
		}
		l.toBody()
		return nil
	default:
		l.sc.PushChar(rune(code))
		l.toBody()
		return nil
	}
}

func (l *Lexer) currentKind() scanner.Kind {
	if a := l.sc.Anchor(); a != nil {
		return a.Kind
	}
	return scanner.StringValue
}

func (l *Lexer) handleLoneHigh() error {
	v := l.str.pendingHigh
	l.str.pendingHigh = 0
	return l.emitUnpairedSurrogate(v, token.LoneHighSurrogate)
}

func (l *Lexer) handleLoneLow(code uint32) error {
	return l.emitUnpairedSurrogate(code, token.LoneLowSurrogate)
}

func (l *Lexer) emitUnpairedSurrogate(code uint32, errCode token.ErrorCode) error {
	switch l.opts.DecodeMode {
	case token.StrictUnicode:
		return &token.ParseError{Code: errCode, Pos: l.sc.Pos()}
	case token.ReplaceInvalid:
		l.sc.PushChar(0xFFFD)
		return nil
	default: // SurrogatePreserving
		if l.currentKind() == scanner.Key {
			l.sc.PushChar(0xFFFD)
			return nil
		}
		writeWTF8Surrogate(l.sc, uint16(code))
		return nil
	}
}

// writeWTF8Surrogate appends the 3-byte WTF-8 encoding of a lone UTF-16
// surrogate code unit, the only way to represent it since utf8.EncodeRune
// refuses the surrogate range.
func writeWTF8Surrogate(sc *scanner.Scanner, cu uint16) {
	sc.EnsureRaw()
	var b [3]byte
	b[0] = 0xE0 | byte(cu>>12)
	b[1] = 0x80 | byte((cu>>6)&0x3F)
	b[2] = 0x80 | byte(cu&0x3F)
	sc.PushRaw(b[:])
}
