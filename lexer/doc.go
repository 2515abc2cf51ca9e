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

// Package lexer implements the JSON tokenizer: structural punctuators, the
// null/true/false literals, numbers, and strings with \uXXXX escapes and
// UTF-16 surrogate-pair joining, all resumable at any character boundary so
// a token may be split across an arbitrary number of feeds.
//
// The lexer never sees a whole token in one pass; instead, like a StateFn
// design built from closures that return the next state, each call to Next
// resumes from whatever sub-state the previous call suspended in. Unlike a
// StateFn trampoline, where each closure returning nil signals completion,
// this lexer persists its resumption point as plain struct fields on
// Lexer, because a single logical token here can legitimately suspend in
// the middle of up to three nested escape sub-states (escape selector, hex
// digits, surrogate continuation) that must survive not just one Next call
// but one or more feed boundaries.
//
// Two option semantics worth calling out:
//
//   - allow_short_hex applies uniformly to every \uXXXX the lexer reads,
//     including both halves of a surrogate pair continuation.
//   - SurrogatePreserving degrades to ReplaceInvalid for keys at the moment
//     the first lone or unpaired surrogate is encountered in that key, not
//     at the key's start.
package lexer

import (
	"github.com/go-jsonstream/jsonstream/scanner"
	"github.com/go-jsonstream/jsonstream/token"
)

// Options configures lexer behavior. It is the lexer-relevant subset of the
// root package's parser options (set there through Option values).
type Options struct {
	AllowUnicodeWhitespace bool
	DecodeMode             token.DecodeMode
	AllowUppercaseU        bool
	AllowShortHex          bool
}

// Token is one internal lexical token. For String, Buf carries one fragment
// of the string (IsInitial/IsFinal mark its place in the sequence); for
// Number, Buf carries the whole lexeme in a single final emission.
type Token struct {
	Type      token.Type
	Pos       token.Pos
	Buf       scanner.TokenBuf
	IsInitial bool
	IsFinal   bool
}

// StringContext tells the lexer, right before it starts lexing a `"`
// token, whether that string is a property name (no fragmentation, no
// partial emission) or a value (may be fragmented). Only consulted when a
// new string token begins; ignored while resuming one already in flight.
type StringContext int

const (
	AsValue StringContext = iota
	AsKey
)
