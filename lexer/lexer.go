package lexer

import (
	"github.com/go-jsonstream/jsonstream/scanner"
	"github.com/go-jsonstream/jsonstream/token"
)

// phase identifies which resumable sub-machine Next should continue in.
type phase int

const (
	phaseTop phase = iota
	phaseLiteral
	phaseNumber
	phaseString
)

// Lexer tokenizes JSON text read through a Scanner. A Lexer is created once
// per Parser and reused across feeds; its phase/sub-state fields are the
// resumption point for a token that was suspended mid-capture by a prior
// Next call returning needMore.
type Lexer struct {
	sc   *scanner.Scanner
	opts Options

	phase phase

	// phaseLiteral
	litWord     string
	litTok      token.Type
	litIdx      int
	litStartPos token.Pos

	// phaseNumber
	num numState

	// phaseString
	str strState

	// pending string context for the *next* string token to start; set by
	// the caller via ExpectKeyNext before calling Next.
	nextStringCtx StringContext
}

// New creates a Lexer reading through sc.
func New(sc *scanner.Scanner, opts Options) *Lexer {
	return &Lexer{sc: sc, opts: opts}
}

// ExpectKeyNext tells the lexer whether the next string token it starts (not
// one already in flight) is a property name (AsKey, which disables
// fragmentation) or a value (AsValue). The parser calls this before every
// Next, passing AsKey only when it is in a state expecting an object key.
func (l *Lexer) ExpectKeyNext(ctx StringContext) {
	l.nextStringCtx = ctx
}

// Next produces the next internal token. ok is false when more input is
// needed (the caller must feed more bytes or call Finish); err is non-nil on
// a fatal lex error, after which the Lexer must not be used again.
func (l *Lexer) Next() (tok Token, ok bool, err error) {
	for {
		switch l.phase {
		case phaseTop:
			t, advanced, e, more := l.stepTop()
			if more {
				return Token{}, false, nil
			}
			if e != nil {
				return Token{}, false, e
			}
			if advanced {
				continue
			}
			return t, true, nil
		case phaseLiteral:
			t, e, more := l.stepLiteral()
			if more {
				return Token{}, false, nil
			}
			if e != nil {
				return Token{}, false, e
			}
			l.phase = phaseTop
			return t, true, nil
		case phaseNumber:
			t, done, e, more := l.stepNumber()
			if more {
				return Token{}, false, nil
			}
			if e != nil {
				return Token{}, false, e
			}
			if done {
				l.phase = phaseTop
				return t, true, nil
			}
			continue
		case phaseString:
			t, done, e, more := l.stepString()
			if more {
				return Token{}, false, nil
			}
			if e != nil {
				return Token{}, false, e
			}
			if done {
				l.phase = phaseTop
			}
			return t, true, nil
		}
	}
}

// stepTop skips whitespace and dispatches on the first non-whitespace
// character. Whitespace is skipped inside stepTop itself. advanced=true
// means it entered a literal, number or string sub-machine without
// producing a token yet, and the caller should loop again to run it.
func (l *Lexer) stepTop() (tok Token, advanced bool, err error, needMore bool) {
	for {
		c, ok := l.sc.Peek()
		if !ok {
			return Token{}, false, nil, true
		}
		if c.Source == scanner.Exhausted {
			return Token{Type: token.EOF, Pos: l.sc.Pos()}, false, nil, false
		}
		if l.isWhitespace(c.Ch) {
			l.sc.Advance()
			continue
		}
		break
	}
	c, _ := l.sc.Peek()
	pos := l.sc.Pos()
	switch c.Ch {
	case '{':
		l.sc.Advance()
		return Token{Type: token.LBrace, Pos: pos}, false, nil, false
	case '}':
		l.sc.Advance()
		return Token{Type: token.RBrace, Pos: pos}, false, nil, false
	case '[':
		l.sc.Advance()
		return Token{Type: token.LBracket, Pos: pos}, false, nil, false
	case ']':
		l.sc.Advance()
		return Token{Type: token.RBracket, Pos: pos}, false, nil, false
	case ',':
		l.sc.Advance()
		return Token{Type: token.Comma, Pos: pos}, false, nil, false
	case ':':
		l.sc.Advance()
		return Token{Type: token.Colon, Pos: pos}, false, nil, false
	case '"':
		kind := scanner.StringValue
		policy := scanner.Allowed
		if l.nextStringCtx == AsKey {
			kind = scanner.Key
			policy = scanner.Disallowed
		}
		l.sc.Advance() // consume opening quote before capture begins
		l.sc.Begin(kind, policy)
		l.str = strState{startPos: pos}
		l.phase = phaseString
		return Token{}, true, nil, false
	case 'n':
		l.litWord, l.litTok, l.litIdx, l.litStartPos = "null", token.Null, 0, pos
		l.phase = phaseLiteral
		return Token{}, true, nil, false
	case 't':
		l.litWord, l.litTok, l.litIdx, l.litStartPos = "true", token.True, 0, pos
		l.phase = phaseLiteral
		return Token{}, true, nil, false
	case 'f':
		l.litWord, l.litTok, l.litIdx, l.litStartPos = "false", token.False, 0, pos
		l.phase = phaseLiteral
		return Token{}, true, nil, false
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		l.sc.Begin(scanner.Number, scanner.Disallowed)
		l.num = numState{startPos: pos}
		l.phase = phaseNumber
		return Token{}, true, nil, false
	default:
		return Token{}, false, &token.ParseError{
			Code: token.UnexpectedChar, Pos: pos, Found: c.Ch,
		}, false
	}
}

func (l *Lexer) isWhitespace(r rune) bool {
	if l.opts.AllowUnicodeWhitespace {
		return scanner.IsUnicodeWhitespace(r)
	}
	return scanner.IsASCIIWhitespace(r)
}

// stepLiteral matches the remaining characters of a null/true/false
// literal, one at a time so it can suspend across feed boundaries.
func (l *Lexer) stepLiteral() (tok Token, err error, needMore bool) {
	for l.litIdx < len(l.litWord) {
		c, ok := l.sc.Peek()
		if !ok {
			return Token{}, nil, true
		}
		if c.Source == scanner.Exhausted || c.Ch != rune(l.litWord[l.litIdx]) {
			return Token{}, &token.ParseError{
				Code: token.UnexpectedChar, Pos: l.sc.Pos(), Found: c.Ch,
				Message: "invalid literal, expected \"" + l.litWord + "\"",
			}, false
		}
		l.sc.Advance()
		l.litIdx++
	}
	return Token{Type: l.litTok, Pos: l.litStartPos}, nil, false
}
