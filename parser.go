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

// Package jsonstream implements a push-driven, incremental JSON parser:
// callers deliver input in arbitrary chunks and receive a linear sequence
// of path-tagged Events without the whole document ever being
// buffered. It wraps the lower-level token, ring, scanner, and lexer
// packages the way a parser wraps its own lexer, reducing a token stream
// into a higher-level structure — except here the reduction target is a
// flat event stream, not a tree of nodes (the tree builder lives in the
// separate jsontree package, outside the core).
package jsonstream

import (
	"math"
	"strconv"

	"github.com/go-jsonstream/jsonstream/lexer"
	"github.com/go-jsonstream/jsonstream/ring"
	"github.com/go-jsonstream/jsonstream/scanner"
	"github.com/go-jsonstream/jsonstream/token"
)

// parseState is the grammar state driving how the next lexer token is
// interpreted.
type parseState int

const (
	psExpectValue parseState = iota
	psAfterValue
	psExpectKey
	psAfterKey
	psExpectColon
	psExpectComma
	psDone
	psBetweenRoots
)

type frameKind int

const (
	frameArray frameKind = iota
	frameObject
)

type frame struct {
	kind      frameKind
	path      Path // the path of the container itself, snapshotted at push
	nextIndex uint32
	key       string
	startPos  token.Pos
}

// Parser drives the lexer and reduces its token stream into Events.
// A Parser is not safe for concurrent use.
type Parser struct {
	opts options
	ring *ring.Ring
	sc   *scanner.Scanner
	lx   *lexer.Lexer

	frames []frame
	state  parseState

	fatalErr    error
	errReturned bool
}

// New creates a Parser with the given options applied over the defaults.
func New(opts ...Option) *Parser {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	r := &ring.Ring{}
	sc := scanner.New(r)
	lx := lexer.New(sc, lexer.Options{
		AllowUnicodeWhitespace: o.allowUnicodeWhitespace,
		DecodeMode:             o.decodeMode,
		AllowUppercaseU:        o.allowUppercaseU,
		AllowShortHex:          o.allowShortHex,
	})
	return &Parser{opts: o, ring: r, sc: sc, lx: lx, state: psExpectValue}
}

// IterResult classifies the outcome of one Iterator.Next call.
type IterResult int

const (
	ResultEvent IterResult = iota
	ResultNeedMore
	ResultError
	ResultDone
)

// Iterator is returned by Feed/Finish.
type Iterator struct {
	p *Parser
}

// Feed begins a new feed with chunk, returning an iterator over the events
// it produces. chunk is read during the iterator's lifetime; an Event's
// Text and Raw fields are copies and do not alias chunk.
func (p *Parser) Feed(chunk []byte) *Iterator {
	p.sc.SetChunk(chunk, false)
	return &Iterator{p: p}
}

// Finish signals end-of-input and returns an iterator draining whatever
// events remain, surfacing a final error if the stream was incomplete.
func (p *Parser) Finish() *Iterator {
	p.sc.SetChunk(nil, true)
	return &Iterator{p: p}
}

// Next produces the next event, or reports that more input is needed, that
// the stream has ended, or a fatal error (surfaced exactly once).
func (it *Iterator) Next() (Event, IterResult, error) {
	p := it.p
	if p.errReturned {
		return Event{}, ResultDone, nil
	}
	if p.fatalErr != nil {
		p.errReturned = true
		return Event{}, ResultError, p.fatalErr
	}
	for {
		ev, res, err := p.step()
		if err != nil {
			p.fatalErr = err
			p.errReturned = true
			p.sc.Finish()
			return Event{}, ResultError, err
		}
		switch res {
		case stepEvent:
			return ev, ResultEvent, nil
		case stepNeedMore:
			p.sc.Finish()
			return Event{}, ResultNeedMore, nil
		case stepDone:
			p.sc.Finish()
			return Event{}, ResultDone, nil
		default: // stepContinue
		}
	}
}

// Drop abandons this iterator mid-token: any in-flight borrow-eligible
// token's unacknowledged prefix is copied into scratch so
// the next feed can resume owned, and the unread chunk tail is carried to
// the ring. It is safe to call Drop without exhausting Next, and safe to
// call it more than once.
func (it *Iterator) Drop() {
	it.p.sc.AbandonToCarry()
	it.p.sc.Finish()
}

type stepResult int

const (
	stepContinue stepResult = iota
	stepEvent
	stepNeedMore
	stepDone
)

// step drives the lexer for exactly one token and folds it into the parse
// state machine, producing at most one event.
func (p *Parser) step() (Event, stepResult, error) {
	ctx := lexer.AsValue
	if p.state == psExpectKey {
		ctx = lexer.AsKey
	}
	p.lx.ExpectKeyNext(ctx)

	tok, ok, err := p.lx.Next()
	if err != nil {
		return Event{}, stepContinue, err
	}
	if !ok {
		return Event{}, stepNeedMore, nil
	}
	if tok.Type == token.EOF {
		return p.atEndOfInput()
	}

	switch p.state {
	case psExpectValue, psBetweenRoots:
		return p.stepValue(tok)
	case psExpectKey:
		return p.stepKey(tok)
	case psExpectColon:
		return p.stepColon(tok)
	case psAfterValue:
		return p.stepAfterValue(tok)
	case psDone:
		return Event{}, stepContinue, &token.ParseError{
			Code: token.TrailingGarbage, Pos: tok.Pos,
		}
	default:
		return Event{}, stepContinue, &token.ParseError{
			Code: token.UnexpectedChar, Pos: tok.Pos,
		}
	}
}

func (p *Parser) atEndOfInput() (Event, stepResult, error) {
	if len(p.frames) > 0 {
		top := p.frames[len(p.frames)-1]
		return Event{}, stepContinue, &token.ParseError{
			Code: token.UnexpectedEndOfInput, Pos: top.startPos,
		}
	}
	if p.state == psExpectValue {
		// Only reachable with no frames before the first value is seen;
		// afterScalar never returns the state machine here afterwards. Empty
		// input is only an error when the caller requires exactly one value.
		if p.opts.allowMultipleValues {
			return Event{}, stepDone, nil
		}
		return Event{}, stepContinue, &token.ParseError{Code: token.UnexpectedEndOfInput}
	}
	return Event{}, stepDone, nil
}

func (p *Parser) currentValuePath() Path {
	if len(p.frames) == 0 {
		return nil
	}
	top := &p.frames[len(p.frames)-1]
	switch top.kind {
	case frameArray:
		out := make(Path, len(top.path)+1)
		copy(out, top.path)
		out[len(top.path)] = Index(top.nextIndex)
		return out
	default:
		out := make(Path, len(top.path)+1)
		copy(out, top.path)
		out[len(top.path)] = Key(top.key)
		return out
	}
}

// afterScalar advances the state machine once a scalar (or the final
// fragment of a string) has been emitted at the current value position.
func (p *Parser) afterScalar() {
	if len(p.frames) == 0 {
		if p.opts.allowMultipleValues {
			p.state = psBetweenRoots
		} else {
			p.state = psDone
		}
		return
	}
	p.state = psAfterValue
}

func (p *Parser) stepValue(tok lexer.Token) (Event, stepResult, error) {
	path := p.currentValuePath()
	switch tok.Type {
	case token.Null:
		p.afterScalar()
		return Event{Kind: Null, Path: path}, stepEvent, nil
	case token.True:
		p.afterScalar()
		return Event{Kind: Boolean, Path: path, Bool: true}, stepEvent, nil
	case token.False:
		p.afterScalar()
		return Event{Kind: Boolean, Path: path, Bool: false}, stepEvent, nil
	case token.Number:
		v, rangeErr := parseNumber(tok.Buf.Text())
		if rangeErr {
			return Event{}, stepContinue, &token.ParseError{Code: token.NumberOutOfRange, Pos: tok.Pos}
		}
		p.afterScalar()
		return Event{Kind: Number, Path: path, Number: v}, stepEvent, nil
	case token.String:
		ev := stringEvent(path, tok)
		if tok.IsFinal {
			p.afterScalar()
		}
		return ev, stepEvent, nil
	case token.LBracket:
		if p.opts.maxDepth > 0 && len(p.frames) >= p.opts.maxDepth {
			return Event{}, stepContinue, &token.ParseError{Code: token.DepthLimitExceeded, Pos: tok.Pos}
		}
		p.pushFrame(frameArray, path, tok.Pos)
		return Event{Kind: ArrayStart, Path: path}, stepEvent, nil
	case token.LBrace:
		if p.opts.maxDepth > 0 && len(p.frames) >= p.opts.maxDepth {
			return Event{}, stepContinue, &token.ParseError{Code: token.DepthLimitExceeded, Pos: tok.Pos}
		}
		p.pushFrame(frameObject, path, tok.Pos)
		p.state = psExpectKey
		return Event{Kind: ObjectBegin, Path: path}, stepEvent, nil
	case token.RBracket:
		if len(p.frames) > 0 && p.frames[len(p.frames)-1].kind == frameArray &&
			p.frames[len(p.frames)-1].nextIndex == 0 {
			return p.popFrame(ArrayEnd)
		}
		return Event{}, stepContinue, &token.ParseError{Code: token.UnexpectedChar, Pos: tok.Pos}
	default:
		return Event{}, stepContinue, &token.ParseError{Code: token.UnexpectedChar, Pos: tok.Pos}
	}
}

func (p *Parser) pushFrame(kind frameKind, path Path, pos token.Pos) {
	p.state = psExpectValue
	p.frames = append(p.frames, frame{kind: kind, path: path.clone(), startPos: pos})
}

func (p *Parser) popFrame(kind EventKind) (Event, stepResult, error) {
	top := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]
	ev := Event{Kind: kind, Path: top.path}
	p.afterScalar()
	return ev, stepEvent, nil
}

func (p *Parser) stepKey(tok lexer.Token) (Event, stepResult, error) {
	if tok.Type == token.RBrace {
		return p.popFrame(ObjectEnd)
	}
	if tok.Type != token.String {
		return Event{}, stepContinue, &token.ParseError{Code: token.UnexpectedChar, Pos: tok.Pos}
	}
	top := &p.frames[len(p.frames)-1]
	top.key = tok.Buf.Text()
	p.state = psExpectColon
	return Event{}, stepContinue, nil
}

func (p *Parser) stepColon(tok lexer.Token) (Event, stepResult, error) {
	if tok.Type != token.Colon {
		return Event{}, stepContinue, &token.ParseError{Code: token.UnexpectedChar, Pos: tok.Pos}
	}
	p.state = psExpectValue
	return Event{}, stepContinue, nil
}

func (p *Parser) stepAfterValue(tok lexer.Token) (Event, stepResult, error) {
	if len(p.frames) == 0 {
		return Event{}, stepContinue, &token.ParseError{Code: token.TrailingGarbage, Pos: tok.Pos}
	}
	top := &p.frames[len(p.frames)-1]
	switch top.kind {
	case frameArray:
		switch tok.Type {
		case token.Comma:
			top.nextIndex++
			p.state = psExpectValue
			return Event{}, stepContinue, nil
		case token.RBracket:
			return p.popFrame(ArrayEnd)
		default:
			return Event{}, stepContinue, &token.ParseError{Code: token.UnexpectedChar, Pos: tok.Pos}
		}
	default:
		switch tok.Type {
		case token.Comma:
			p.state = psExpectKey
			return Event{}, stepContinue, nil
		case token.RBrace:
			return p.popFrame(ObjectEnd)
		default:
			return Event{}, stepContinue, &token.ParseError{Code: token.UnexpectedChar, Pos: tok.Pos}
		}
	}
}

func stringEvent(path Path, tok lexer.Token) Event {
	ev := Event{Kind: String, Path: path, IsInitial: tok.IsInitial, IsFinal: tok.IsFinal}
	if tok.Buf.IsRaw() {
		ev.IsRaw = true
		ev.Raw = tok.Buf.Bytes()
	} else {
		ev.Text = tok.Buf.Text()
	}
	return ev
}

// parseNumber converts a lexed number literal to f64, reporting whether it
// overflowed to +/-Inf (NumberOutOfRange); NaN is unreachable from the
// grammar.
func parseNumber(lexeme string) (v float64, outOfRange bool) {
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil && math.IsInf(v, 0) {
		return v, true
	}
	return v, false
}
