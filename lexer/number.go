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

// numPhase is the resumption point within a number lexeme, following the
// JSON grammar: -? (0 | [1-9][0-9]*) (\.[0-9]+)? ([eE][+-]?[0-9]+)?
type numPhase int

const (
	numSign numPhase = iota
	numIntFirst
	numIntRest
	numAfterInt // decide between '.', 'e'/'E', or end
	numFracFirst
	numFracRest
	numAfterFrac // decide between 'e'/'E' or end
	numExpSign
	numExpFirst
	numExpRest
)

type numState struct {
	phase    numPhase
	startPos token.Pos
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isDigitRune(r rune) bool { return r >= '0' && r <= '9' }

// stepNumber resumes number lexing. done=true means the number is complete
// and tok carries the final (always unfragmented) lexeme.
func (l *Lexer) stepNumber() (tok Token, done bool, err error, needMore bool) {
	sc := l.sc
	for {
		switch l.num.phase {
		case numSign:
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Ch == '-' {
				sc.Advance()
			}
			l.num.phase = numIntFirst
		case numIntFirst:
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Source == scanner.Exhausted || !isDigitRune(c.Ch) {
				return Token{}, false, l.numErr(c), false
			}
			zero := c.Ch == '0'
			sc.Advance()
			if zero {
				l.num.phase = numAfterInt
			} else {
				l.num.phase = numIntRest
			}
		case numIntRest:
			n := sc.CopyASCIIWhile(isDigit)
			_ = n
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Source != scanner.Batch {
				// ring-sourced digits: fall back to one-at-a-time
				if c.Source == scanner.Ring && isDigitRune(c.Ch) {
					sc.Advance()
					continue
				}
			}
			l.num.phase = numAfterInt
		case numAfterInt:
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			switch {
			case c.Ch == '.':
				sc.Advance()
				l.num.phase = numFracFirst
			case c.Ch == 'e' || c.Ch == 'E':
				sc.Advance()
				l.num.phase = numExpSign
			default:
				return l.numDone(), true, nil, false
			}
		case numFracFirst:
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Source == scanner.Exhausted || !isDigitRune(c.Ch) {
				return Token{}, false, l.numErr(c), false
			}
			sc.Advance()
			l.num.phase = numFracRest
		case numFracRest:
			sc.CopyASCIIWhile(isDigit)
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Source == scanner.Ring && isDigitRune(c.Ch) {
				sc.Advance()
				continue
			}
			l.num.phase = numAfterFrac
		case numAfterFrac:
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Ch == 'e' || c.Ch == 'E' {
				sc.Advance()
				l.num.phase = numExpSign
				continue
			}
			return l.numDone(), true, nil, false
		case numExpSign:
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Ch == '+' || c.Ch == '-' {
				sc.Advance()
			}
			l.num.phase = numExpFirst
		case numExpFirst:
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Source == scanner.Exhausted || !isDigitRune(c.Ch) {
				return Token{}, false, l.numErr(c), false
			}
			sc.Advance()
			l.num.phase = numExpRest
		case numExpRest:
			sc.CopyASCIIWhile(isDigit)
			c, ok := sc.Peek()
			if !ok {
				return Token{}, false, nil, true
			}
			if c.Source == scanner.Ring && isDigitRune(c.Ch) {
				sc.Advance()
				continue
			}
			return l.numDone(), true, nil, false
		}
	}
}

func (l *Lexer) numDone() Token {
	buf := l.sc.EmitFinal()
	return Token{Type: token.Number, Pos: l.num.startPos, Buf: buf, IsInitial: true, IsFinal: true}
}

func (l *Lexer) numErr(c scanner.Char) error {
	l.sc.EmitFinal()
	return &token.ParseError{Code: token.MalformedNumber, Pos: l.sc.Pos(), Found: c.Ch}
}
